package nmcli

import (
	"bufio"
	"strings"
)

// placeholder is what nmcli prints in terse mode for an empty value.
const placeholder = "--"

// SplitEscaped splits line on unescaped occurrences of delim. A backslash
// makes the following character literal; a trailing lone backslash ends the
// final field. Escape sequences are left in place, see Unescape.
func SplitEscaped(line string, delim byte) []string {
	var fields []string
	start := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			if i+1 >= len(line) {
				return append(fields, line[start:i])
			}
			i++
		case delim:
			fields = append(fields, line[start:i])
			start = i + 1
		}
	}
	return append(fields, line[start:])
}

var unescaper = strings.NewReplacer(`\:`, `:`, `\\`, `\`)

// Unescape reverses nmcli's terse-mode escaping of ':' and '\'.
func Unescape(s string) string {
	return unescaper.Replace(s)
}

// SplitRow splits one line of terse tabular output into unescaped fields.
func SplitRow(line string) []string {
	fields := SplitEscaped(line, ':')
	for i, f := range fields {
		fields[i] = Unescape(f)
	}
	return fields
}

// ParseTable parses terse tabular output into one row per line. Empty
// output yields no rows.
func ParseTable(raw string) [][]string {
	var rows [][]string
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, SplitRow(line))
	}
	return rows
}

// ParseKeyValue parses "key:value" lines, splitting on the first colon.
// Parsing stops at the first blank line after content, since nmcli prints one
// block per matching connection and only the first is relevant.
func ParseKeyValue(raw string) map[string]string {
	kv := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if len(kv) > 0 {
				break
			}
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		kv[key] = value
	}
	return kv
}

// Record is a row mapped onto field names. Absent keys hold no value; nmcli's
// placeholders never appear in a Record.
type Record map[string]string

// Get returns the value for key and whether it is present.
func (r Record) Get(key string) (string, bool) {
	v, ok := r[key]
	return v, ok
}

// Ptr returns the value for key, or nil when absent.
func (r Record) Ptr(key string) *string {
	if v, ok := r[key]; ok {
		return &v
	}
	return nil
}

// MapRow zips keys with row. The shorter of the two wins: missing values
// leave keys absent and surplus values are dropped. Empty and "--" values
// are treated as absent.
func MapRow(keys []string, row []string) Record {
	rec := make(Record, len(keys))
	for i, k := range keys {
		if i >= len(row) {
			break
		}
		if v := row[i]; present(v) {
			rec[k] = v
		}
	}
	return rec
}

// MapKeyValue converts ParseKeyValue output into a Record of unescaped
// values, dropping placeholders.
func MapKeyValue(kv map[string]string) Record {
	rec := make(Record, len(kv))
	for k, v := range kv {
		if v = strings.TrimSpace(v); present(v) {
			rec[k] = Unescape(v)
		}
	}
	return rec
}

func present(v string) bool {
	return v != "" && v != placeholder
}
