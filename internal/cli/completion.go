package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/kong"
)

// CompletionCmd generates shell completions
type CompletionCmd struct {
	Shell string `arg:"" enum:"bash,zsh,fish" help:"Shell type (bash, zsh, fish)"`
}

// completionIndex is built from the live Kong model so completions never
// drift from the actual CLI.
type completionIndex struct {
	Commands map[string][]string // command name -> subcommand names ("" = root)
	Flags    map[string][]string // command name -> flag tokens
}

// Run executes the completion command.
//
// Note: we accept *kong.Context so completion output stays in sync with the actual CLI model.
func (c *CompletionCmd) Run(globals *Globals, ctx *kong.Context) error {
	var model *kong.Node
	if ctx != nil && ctx.Kong != nil && ctx.Model != nil {
		model = ctx.Model.Node
	}
	idx := buildCompletionIndex(model)

	switch c.Shell {
	case "bash":
		return c.generateBash(globals, idx)
	case "zsh":
		return c.generateZsh(globals, idx)
	case "fish":
		return c.generateFish(globals, idx)
	default:
		return fmt.Errorf("unsupported shell: %s", c.Shell)
	}
}

func buildCompletionIndex(model *kong.Node) completionIndex {
	idx := completionIndex{
		Commands: map[string][]string{},
		Flags:    map[string][]string{},
	}
	if model == nil {
		return idx
	}

	var walk func(n *kong.Node, name string)
	walk = func(n *kong.Node, name string) {
		var subs []string
		for _, child := range n.Children {
			if child == nil || child.Type != kong.CommandNode || child.Hidden {
				continue
			}
			subs = append(subs, child.Name)
		}
		sort.Strings(subs)
		idx.Commands[name] = subs

		seen := map[string]struct{}{}
		var flags []string
		for _, group := range n.AllFlags(true) {
			for _, f := range group {
				if f == nil {
					continue
				}
				for _, t := range flagTokens(f) {
					if _, ok := seen[t]; ok {
						continue
					}
					seen[t] = struct{}{}
					flags = append(flags, t)
				}
			}
		}
		sort.Strings(flags)
		idx.Flags[name] = flags

		for _, child := range n.Children {
			if child == nil || child.Type != kong.CommandNode || child.Hidden {
				continue
			}
			walk(child, child.Name)
		}
	}
	walk(model, "")
	return idx
}

func flagTokens(f *kong.Flag) []string {
	tokens := []string{"--" + f.Name}
	if f.Short != 0 {
		tokens = append(tokens, "-"+string(f.Short))
	}
	return tokens
}

func (c *CompletionCmd) generateBash(globals *Globals, idx completionIndex) error {
	var sb strings.Builder
	sb.WriteString(`# hooklog bash completion script
# Add to ~/.bashrc or ~/.bash_profile:
#   eval "$(hooklog completion bash)"

_hooklog_completions() {
    local cur prev words cword
    _init_completion || return

    local cmd=""
    local i
    for ((i=1; i < cword; i++)); do
        local w=${words[i]}
        [[ -z "${w}" ]] && continue
        [[ "${w}" == -* ]] && continue
        cmd="${w}"
        break
    done

    local subcommands=""
    local flags=""
    case "${cmd}" in
`)
	for _, name := range sortedKeys(idx.Commands) {
		if name == "" {
			continue
		}
		sb.WriteString("        " + name + ")\n")
		sb.WriteString("            subcommands=\"" + strings.Join(idx.Commands[name], " ") + "\"\n")
		sb.WriteString("            flags=\"" + strings.Join(idx.Flags[name], " ") + "\"\n")
		sb.WriteString("            ;;\n")
	}
	sb.WriteString(`        *)
            subcommands="` + strings.Join(idx.Commands[""], " ") + `"
            flags="` + strings.Join(idx.Flags[""], " ") + `"
            ;;
    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=($(compgen -W "${flags}" -- "${cur}"))
        return
    fi
    COMPREPLY=($(compgen -W "${subcommands}" -- "${cur}"))
}

complete -F _hooklog_completions hooklog
`)
	_, err := fmt.Fprint(globals.Stdout, sb.String())
	return err
}

func (c *CompletionCmd) generateZsh(globals *Globals, idx completionIndex) error {
	// Keep this intentionally lightweight (no deep zsh _arguments trees).
	var sb strings.Builder
	sb.WriteString(`#compdef hooklog
# hooklog zsh completion script
# Add to ~/.zshrc:
#   eval "$(hooklog completion zsh)"

_hooklog() {
  local cur cmd
  cur="${words[CURRENT]}"

  cmd=""
  local i
  for ((i=2; i < CURRENT; i++)); do
    local w="${words[i]}"
    [[ -z "${w}" ]] && continue
    [[ "${w}" == -* ]] && continue
    cmd="${w}"
    break
  done

  local -a subcommands
  local -a flags
  case "${cmd}" in
`)
	for _, name := range sortedKeys(idx.Commands) {
		if name == "" {
			continue
		}
		sb.WriteString("    " + name + ")\n")
		sb.WriteString("      subcommands=(" + strings.Join(idx.Commands[name], " ") + ")\n")
		sb.WriteString("      flags=(" + strings.Join(idx.Flags[name], " ") + ")\n")
		sb.WriteString("      ;;\n")
	}
	sb.WriteString(`    *)
      subcommands=(` + strings.Join(idx.Commands[""], " ") + `)
      flags=(` + strings.Join(idx.Flags[""], " ") + `)
      ;;
  esac

  if [[ "${cur}" == -* ]]; then
    compadd -- ${flags[@]}
    return
  fi
  if (( ${#subcommands[@]} > 0 )); then
    compadd -- ${subcommands[@]}
  fi
}

compdef _hooklog hooklog
`)
	_, err := fmt.Fprint(globals.Stdout, sb.String())
	return err
}

func (c *CompletionCmd) generateFish(globals *Globals, idx completionIndex) error {
	var sb strings.Builder
	sb.WriteString(`# hooklog fish completion script
# Add to ~/.config/fish/completions/hooklog.fish

# Disable file completion by default
complete -c hooklog -f

`)
	for _, cmd := range idx.Commands[""] {
		sb.WriteString("complete -c hooklog -n \"__fish_use_subcommand\" -a \"" + cmd + "\"\n")
	}
	for _, flag := range idx.Flags[""] {
		if !strings.HasPrefix(flag, "--") {
			continue
		}
		sb.WriteString("complete -c hooklog -l " + strings.TrimPrefix(flag, "--") + "\n")
	}

	_, err := fmt.Fprint(globals.Stdout, sb.String())
	return err
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
