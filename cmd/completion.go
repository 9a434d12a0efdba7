package cmd

import (
	"fmt"
	"os"
)

// Completion outputs shell completion scripts
func Completion(shell string) {
	switch shell {
	case "bash":
		fmt.Print(bashCompletion)
	case "zsh":
		fmt.Print(zshCompletion)
	case "fish":
		fmt.Print(fishCompletion)
	default:
		fmt.Fprintf(os.Stderr, "Unknown shell: %s\nSupported: bash, zsh, fish\n", shell)
		os.Exit(1)
	}
}

const bashCompletion = `_seedvault() {
    local cur prev words cword
    _init_completion || return

    local commands="init key seed passwd ls status rm verify compact intermediate ecgen confirm keyring help completion"

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi

    local cmd="${words[1]}"
    local entries
    case "$cmd" in
        key)
            if [[ $cword -eq 2 ]]; then
                COMPREPLY=($(compgen -W "add gen show import" -- "$cur"))
            elif [[ "${words[2]}" == "show" ]]; then
                entries=$(seedvault ls 2>/dev/null | awk '$2 == "bip38" {print $1}')
                COMPREPLY=($(compgen -W "$entries" -- "$cur"))
            elif [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--uncompressed" -- "$cur"))
            fi
            ;;
        seed)
            if [[ $cword -eq 2 ]]; then
                COMPREPLY=($(compgen -W "new import show" -- "$cur"))
            elif [[ "${words[2]}" == "show" ]]; then
                if [[ "$cur" == -* ]]; then
                    COMPREPLY=($(compgen -W "--words" -- "$cur"))
                else
                    entries=$(seedvault ls 2>/dev/null | awk '$2 == "aezeed" {print $1}')
                    COMPREPLY=($(compgen -W "$entries" -- "$cur"))
                fi
            fi
            ;;
        passwd|rm|verify)
            entries=$(seedvault ls 2>/dev/null | awk 'NF >= 3 && $1 != "address" {print $1}')
            COMPREPLY=($(compgen -W "$entries" -- "$cur"))
            ;;
        intermediate)
            COMPREPLY=($(compgen -W "--lot --sequence" -- "$cur"))
            ;;
        ecgen)
            COMPREPLY=($(compgen -W "--uncompressed --name" -- "$cur"))
            ;;
        keyring)
            if [[ $cword -eq 2 ]]; then
                COMPREPLY=($(compgen -W "save delete status" -- "$cur"))
            else
                entries=$(seedvault ls 2>/dev/null | awk 'NF >= 3 && $1 != "address" {print $1}')
                COMPREPLY=($(compgen -W "$entries" -- "$cur"))
            fi
            ;;
        help)
            COMPREPLY=($(compgen -W "$commands" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
    esac
}

complete -F _seedvault seedvault
`

const zshCompletion = `#compdef seedvault

_seedvault() {
    local -a commands
    commands=(
        'init:Create a new vault'
        'key:Add, generate, show or import private keys'
        'seed:Create, import or show enciphered seeds'
        'passwd:Change the passphrase of an entry'
        'ls:List entries'
        'status:Show vault status'
        'rm:Remove entries'
        'verify:Check an entry or payload without a passphrase'
        'compact:Compact vault to reclaim disk space'
        'intermediate:Create a passphrase code for delegated key generation'
        'ecgen:Generate an encrypted key from a passphrase code'
        'confirm:Check a confirmation code'
        'keyring:Manage entry passphrases in OS keyring'
        'help:Show help for a command'
        'completion:Generate shell completions'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'seedvault commands' commands
            ;;
        args)
            case "${words[2]}" in
                key)
                    _values 'subcommand' add gen show import
                    ;;
                seed)
                    _values 'subcommand' new import show
                    ;;
                passwd|rm|verify)
                    _arguments '*:entry:_seedvault_entries'
                    ;;
                keyring)
                    _values 'subcommand' save delete status
                    ;;
                help)
                    _describe -t commands 'seedvault commands' commands
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_seedvault_entries() {
    local -a entries
    entries=(${(f)"$(seedvault ls 2>/dev/null | awk 'NF >= 3 && $1 != "address" {print $1}')"})
    _describe -t entries 'vault entries' entries
}

_seedvault "$@"
`

const fishCompletion = `# seedvault fish completions

set -l commands init key seed passwd ls status rm verify compact intermediate ecgen confirm keyring help completion

complete -c seedvault -f

# Commands
complete -c seedvault -n "not __fish_seen_subcommand_from $commands" -a init -d 'Create a new vault'
complete -c seedvault -n "not __fish_seen_subcommand_from $commands" -a key -d 'Manage private keys'
complete -c seedvault -n "not __fish_seen_subcommand_from $commands" -a seed -d 'Manage enciphered seeds'
complete -c seedvault -n "not __fish_seen_subcommand_from $commands" -a passwd -d 'Change entry passphrase'
complete -c seedvault -n "not __fish_seen_subcommand_from $commands" -a ls -d 'List entries'
complete -c seedvault -n "not __fish_seen_subcommand_from $commands" -a status -d 'Show vault status'
complete -c seedvault -n "not __fish_seen_subcommand_from $commands" -a rm -d 'Remove entries'
complete -c seedvault -n "not __fish_seen_subcommand_from $commands" -a verify -d 'Check without passphrase'
complete -c seedvault -n "not __fish_seen_subcommand_from $commands" -a compact -d 'Compact vault'
complete -c seedvault -n "not __fish_seen_subcommand_from $commands" -a intermediate -d 'Create passphrase code'
complete -c seedvault -n "not __fish_seen_subcommand_from $commands" -a ecgen -d 'Generate key from passphrase code'
complete -c seedvault -n "not __fish_seen_subcommand_from $commands" -a confirm -d 'Check confirmation code'
complete -c seedvault -n "not __fish_seen_subcommand_from $commands" -a keyring -d 'Manage passphrases in OS keyring'
complete -c seedvault -n "not __fish_seen_subcommand_from $commands" -a help -d 'Show help'
complete -c seedvault -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate completions'

# subcommands
complete -c seedvault -n "__fish_seen_subcommand_from key" -a "add gen show import"
complete -c seedvault -n "__fish_seen_subcommand_from seed" -a "new import show"
complete -c seedvault -n "__fish_seen_subcommand_from keyring" -a "save delete status"

# help completions
complete -c seedvault -n "__fish_seen_subcommand_from help" -a "$commands"

# completion completions
complete -c seedvault -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
