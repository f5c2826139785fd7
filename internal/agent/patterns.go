package agent

import "strings"

// CommandPattern maps a literal utterance prefix to a named tool. Patterns
// are tried in declaration order; the first prefix that matches is terminal,
// even when its tool turns out to be unavailable.
type CommandPattern struct {
	Prefix  string   // lowercase literal prefix, matched case-insensitively
	Tool    string   // registry name of the tool to invoke
	Keys    []string // parameter names, positional
	MinArgs int      // required argument count; len(Keys) is the maximum
}

// splitArgs splits rest into at most n whitespace-delimited fields. The last
// field keeps its internal whitespace, so a two-argument pattern consumes
// "report.docx quarterly results" as ["report.docx", "quarterly results"].
func splitArgs(rest string, n int) []string {
	rest = strings.TrimSpace(rest)
	if rest == "" || n <= 0 {
		return nil
	}
	var out []string
	for len(out) < n-1 {
		i := strings.IndexFunc(rest, isSpace)
		if i < 0 {
			break
		}
		out = append(out, rest[:i])
		rest = strings.TrimLeftFunc(rest[i:], isSpace)
	}
	if rest != "" {
		out = append(out, rest)
	}
	return out
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t'
}

// BuildArgs maps the positional fields onto the pattern's parameter names.
func (p CommandPattern) BuildArgs(args []string) map[string]any {
	m := make(map[string]any, len(args))
	for i, a := range args {
		if i >= len(p.Keys) {
			break
		}
		m[p.Keys[i]] = a
	}
	return m
}

// DefaultPatterns is the built-in command table. Order is priority: a prefix
// listed earlier shadows any later prefix it subsumes, so longer, more
// specific prefixes come first.
func DefaultPatterns() []CommandPattern {
	return []CommandPattern{
		{Prefix: "append to file", Tool: "append_to_docx", Keys: []string{"path", "text"}, MinArgs: 2},
		{Prefix: "template variables", Tool: "get_template_variables", Keys: []string{"template_path"}, MinArgs: 1},
		{Prefix: "validate template", Tool: "validate_template", Keys: []string{"template_path"}, MinArgs: 1},
		{Prefix: "create folder", Tool: "create_folder", Keys: []string{"folder_path"}, MinArgs: 1},
		{Prefix: "delete folder", Tool: "delete_folder", Keys: []string{"folder_path"}, MinArgs: 1},
		{Prefix: "create file", Tool: "create_docx", Keys: []string{"filename", "text"}, MinArgs: 2},
		{Prefix: "read file", Tool: "read_docx", Keys: []string{"path"}, MinArgs: 1},
		{Prefix: "delete file", Tool: "delete_file", Keys: []string{"filename"}, MinArgs: 1},
		{Prefix: "copy file", Tool: "copy_file", Keys: []string{"source", "destination"}, MinArgs: 2},
		{Prefix: "move file", Tool: "move_file", Keys: []string{"source", "destination"}, MinArgs: 2},
		{Prefix: "list files", Tool: "list_files", Keys: []string{"directory"}, MinArgs: 0},
	}
}
