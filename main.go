package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/illarion/seedvault/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "help", "-h", "--help":
		if len(os.Args) <= 2 {
			printUsage()
			return
		}
		printCommandHelp(os.Args[2])
		return
	case "completion":
		runCompletion(ctx, os.Args[2:])
		return
	}

	cmd.LoadConfig(os.Getenv("SEEDVAULT_CONFIG"))

	switch os.Args[1] {
	case "init":
		runInit(ctx, os.Args[2:])
	case "key":
		runKey(ctx, os.Args[2:])
	case "seed":
		runSeed(ctx, os.Args[2:])
	case "passwd":
		runPasswd(ctx, os.Args[2:])
	case "ls":
		runLs(ctx, os.Args[2:])
	case "status":
		runStatus(ctx, os.Args[2:])
	case "rm":
		runRm(ctx, os.Args[2:])
	case "verify":
		runVerify(ctx, os.Args[2:])
	case "compact":
		runCompact(ctx, os.Args[2:])
	case "intermediate":
		runIntermediate(ctx, os.Args[2:])
	case "ecgen":
		runECGen(ctx, os.Args[2:])
	case "confirm":
		runConfirm(ctx, os.Args[2:])
	case "keyring":
		runKeyring(ctx, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// parse parses flags and exits with usage when fewer than n positional
// arguments remain
func parse(fs *flag.FlagSet, args []string, n int, usage string) []string {
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	if fs.NArg() < n {
		fmt.Fprintf(os.Stderr, "Usage: seedvault %s\n", usage)
		os.Exit(1)
	}
	return fs.Args()
}

func runInit(_ context.Context, args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	parse(fs, args, 0, "init")

	cmd.Init()
}

func runKey(ctx context.Context, args []string) {
	if len(args) < 1 {
		printCommandHelp("key")
		os.Exit(1)
	}

	sub, args := args[0], args[1:]
	switch sub {
	case "add":
		fs := flag.NewFlagSet("key add", flag.ExitOnError)
		rest := parse(fs, args, 1, "key add <name> [wif]")
		wif := ""
		if len(rest) > 1 {
			wif = rest[1]
		}
		cmd.KeyAdd(ctx, rest[0], wif)
	case "gen":
		fs := flag.NewFlagSet("key gen", flag.ExitOnError)
		uncompressed := fs.Bool("uncompressed", false, "Use the uncompressed public key form")
		rest := parse(fs, args, 1, "key gen [--uncompressed] <name>")
		cmd.KeyGen(ctx, rest[0], *uncompressed)
	case "show":
		fs := flag.NewFlagSet("key show", flag.ExitOnError)
		rest := parse(fs, args, 1, "key show <name>")
		cmd.KeyShow(ctx, rest[0])
	case "import":
		fs := flag.NewFlagSet("key import", flag.ExitOnError)
		rest := parse(fs, args, 2, "key import <name> <6P...>")
		cmd.KeyImport(rest[0], rest[1])
	default:
		fmt.Fprintf(os.Stderr, "Unknown key command: %s\n", sub)
		printCommandHelp("key")
		os.Exit(1)
	}
}

func runSeed(ctx context.Context, args []string) {
	if len(args) < 1 {
		printCommandHelp("seed")
		os.Exit(1)
	}

	sub, args := args[0], args[1:]
	switch sub {
	case "new":
		fs := flag.NewFlagSet("seed new", flag.ExitOnError)
		rest := parse(fs, args, 1, "seed new <name>")
		cmd.SeedNew(ctx, rest[0])
	case "import":
		fs := flag.NewFlagSet("seed import", flag.ExitOnError)
		rest := parse(fs, args, 1, "seed import <name> [word...]")
		cmd.SeedImport(rest[0], rest[1:])
	case "show":
		fs := flag.NewFlagSet("seed show", flag.ExitOnError)
		words := fs.Bool("words", false, "Also print the stored mnemonic")
		rest := parse(fs, args, 1, "seed show [--words] <name>")
		cmd.SeedShow(ctx, rest[0], *words)
	default:
		fmt.Fprintf(os.Stderr, "Unknown seed command: %s\n", sub)
		printCommandHelp("seed")
		os.Exit(1)
	}
}

func runPasswd(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("passwd", flag.ExitOnError)
	rest := parse(fs, args, 1, "passwd <name>")

	cmd.Passwd(ctx, rest[0])
}

func runLs(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("ls", flag.ExitOnError)
	parse(fs, args, 0, "ls")

	cmd.List(ctx)
}

func runStatus(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	parse(fs, args, 0, "status")

	cmd.Status(ctx)
}

func runRm(_ context.Context, args []string) {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	rest := parse(fs, args, 1, "rm <name> [name...]")

	cmd.Remove(rest)
}

func runVerify(_ context.Context, args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	rest := parse(fs, args, 1, "verify <name | 6P... | 24 words>")

	cmd.Verify(rest)
}

func runCompact(_ context.Context, args []string) {
	fs := flag.NewFlagSet("compact", flag.ExitOnError)
	parse(fs, args, 0, "compact")

	cmd.Compact()
}

func runIntermediate(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("intermediate", flag.ExitOnError)
	lot := fs.Int("lot", -1, "Lot number (0-1048575)")
	sequence := fs.Int("sequence", -1, "Sequence number (0-4095)")
	parse(fs, args, 0, "intermediate [--lot N --sequence N]")

	cmd.Intermediate(ctx, *lot, *sequence)
}

func runECGen(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("ecgen", flag.ExitOnError)
	uncompressed := fs.Bool("uncompressed", false, "Use the uncompressed public key form")
	name := fs.String("name", "", "Also store the encrypted key in the vault under this name")
	rest := parse(fs, args, 1, "ecgen [--uncompressed] [--name NAME] <passphrase code>")

	cmd.ECGen(ctx, rest[0], *uncompressed, *name)
}

func runConfirm(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("confirm", flag.ExitOnError)
	rest := parse(fs, args, 1, "confirm <cfrm38...>")

	cmd.Confirm(ctx, rest[0])
}

func runKeyring(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: seedvault keyring <save|delete|status> <name>")
		os.Exit(1)
	}

	switch args[0] {
	case "save":
		cmd.KeyringSave(ctx, args[1])
	case "delete":
		cmd.KeyringDelete(args[1])
	case "status":
		cmd.KeyringStatus(args[1])
	default:
		fmt.Fprintf(os.Stderr, "Unknown keyring command: %s\n", args[0])
		os.Exit(1)
	}
}

func runCompletion(_ context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: seedvault completion <bash|zsh|fish>")
		os.Exit(1)
	}
	cmd.Completion(args[0])
}

func printUsage() {
	fmt.Println("seedvault - Passphrase-protected wallet keys and seeds")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  seedvault <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  init          Create a vault (default .seedvault)")
	fmt.Println("  key           Add, generate, show or import encrypted private keys")
	fmt.Println("  seed          Create, import or show enciphered seed mnemonics")
	fmt.Println("  passwd        Change the passphrase of an entry")
	fmt.Println("  ls            List entries")
	fmt.Println("  status        Show vault status")
	fmt.Println("  rm            Remove entries")
	fmt.Println("  verify        Check an entry or payload without a passphrase")
	fmt.Println("  compact       Compact vault to reclaim disk space")
	fmt.Println("  intermediate  Create a passphrase code for delegated key generation")
	fmt.Println("  ecgen         Generate an encrypted key from a passphrase code")
	fmt.Println("  confirm       Check a confirmation code against the passphrase")
	fmt.Println("  keyring       Manage entry passphrases in the OS keyring")
	fmt.Println("  completion    Generate shell completions")
	fmt.Println("  help          Show help for a command")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  seedvault init                  # Create new vault")
	fmt.Println("  seedvault key gen cold          # Generate and encrypt a key")
	fmt.Println("  seedvault seed new wallet       # Create a 24 word seed")
	fmt.Println("  seedvault ls                    # List entries")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  SEEDVAULT_PASSPHRASE  Passphrase used instead of prompting")
	fmt.Println("  SEEDVAULT_CONFIG      Config file (default: seedvault.yaml in . or $HOME)")
	fmt.Println()
	fmt.Println("Use 'seedvault help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "init":
		fmt.Println("seedvault init")
		fmt.Println()
		fmt.Println("Creates an empty vault at vault.path (default .seedvault).")
		fmt.Println("The vault has no master passphrase; every entry has its own.")
	case "key":
		fmt.Println("seedvault key <add|gen|show|import> ...")
		fmt.Println()
		fmt.Println("Stores private keys encrypted under a passphrase (\"6P...\" form).")
		fmt.Println()
		fmt.Println("  key add <name> [wif]                Encrypt an existing WIF key")
		fmt.Println("  key gen [--uncompressed] <name>     Generate a new key")
		fmt.Println("  key show <name>                     Decrypt and print the WIF key")
		fmt.Println("  key import <name> <6P...>           Store an already encrypted key")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  seedvault key gen cold")
		fmt.Println("  seedvault key import paper 6PRVWUbkzzsbcVac2qwfssoUJAN1Xhrg6bNk8J7Nzm5H7kxEbn2Nh2ZoGg")
	case "seed":
		fmt.Println("seedvault seed <new|import|show> ...")
		fmt.Println()
		fmt.Println("Stores 24 word enciphered seed mnemonics. The mnemonic itself is")
		fmt.Println("encrypted; restoring the seed needs both words and passphrase.")
		fmt.Println("An empty passphrase means the default \"aezeed\".")
		fmt.Println()
		fmt.Println("  seed new <name>                     Create a random seed")
		fmt.Println("  seed import <name> [word...]        Store an existing mnemonic")
		fmt.Println("  seed show [--words] <name>          Decipher and print entropy")
	case "passwd":
		fmt.Println("seedvault passwd <name>")
		fmt.Println()
		fmt.Println("Re-encrypts one entry under a new passphrase.")
		fmt.Println("Keys from ec-multiply generation become plain encrypted keys.")
	case "ls":
		fmt.Println("seedvault ls")
		fmt.Println()
		fmt.Println("Lists entries with kind, modification time and known address.")
		fmt.Println("Does not require a passphrase.")
	case "status":
		fmt.Println("seedvault status")
		fmt.Println()
		fmt.Println("Shows vault metadata and entry counts, and checks every entry's")
		fmt.Println("structure. Does not require a passphrase.")
	case "rm":
		fmt.Println("seedvault rm <name> [name...]")
		fmt.Println()
		fmt.Println("Removes entries and their cached keyring passphrases, then compacts.")
	case "verify":
		fmt.Println("seedvault verify <name | 6P... | 24 words>")
		fmt.Println()
		fmt.Println("Checks checksums, lengths, prefixes and flags. Never derives a key,")
		fmt.Println("so it is instant and does not need a passphrase.")
	case "compact":
		fmt.Println("seedvault compact")
		fmt.Println()
		fmt.Println("Compacts the vault database to reclaim unused disk space.")
		fmt.Println("This is automatically done after 'rm' and 'passwd'.")
	case "intermediate":
		fmt.Println("seedvault intermediate [--lot N --sequence N]")
		fmt.Println()
		fmt.Println("Creates a \"passphrase...\" code. Give it to a key generator that")
		fmt.Println("should create keys only you can decrypt.")
	case "ecgen":
		fmt.Println("seedvault ecgen [--uncompressed] [--name NAME] <passphrase code>")
		fmt.Println()
		fmt.Println("Generates an encrypted key and its confirmation code from a")
		fmt.Println("passphrase code. No passphrase is needed.")
	case "confirm":
		fmt.Println("seedvault confirm <cfrm38...>")
		fmt.Println()
		fmt.Println("Checks a confirmation code against the owner passphrase and")
		fmt.Println("prints the address of the generated key.")
	case "keyring":
		fmt.Println("seedvault keyring <save|delete|status> <name>")
		fmt.Println()
		fmt.Println("Caches an entry passphrase in the OS keyring so show and passwd")
		fmt.Println("do not prompt. A stale cached passphrase is removed automatically.")
	case "completion":
		fmt.Println("seedvault completion <bash|zsh|fish>")
		fmt.Println()
		fmt.Println("Outputs shell completion script for the specified shell.")
		fmt.Println()
		fmt.Println("Setup:")
		fmt.Println("  # Bash - add to ~/.bashrc")
		fmt.Println("  eval \"$(seedvault completion bash)\"")
		fmt.Println()
		fmt.Println("  # Zsh - add to ~/.zshrc")
		fmt.Println("  eval \"$(seedvault completion zsh)\"")
		fmt.Println()
		fmt.Println("  # Fish - add to ~/.config/fish/config.fish")
		fmt.Println("  seedvault completion fish | source")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
	}
}
