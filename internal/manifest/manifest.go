// Package manifest reads the declarative item header of a plugin artifact.
// Plugins declare the menu items they contribute in `#:` directives inside
// the file's leading comment block; the artifact itself is never executed
// to discover them.
//
// Example header:
//
//	#:item clock {"title": "Clock"}
//	#:item clock-alarms {"title": "Alarms"}
package manifest

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/markhedleyjones/menu-kit/internal/itemstore"
)

const directivePrefix = "#:"

// maxHeaderLine bounds a single header line. Longer lines are code (a
// minified artifact, say), not header, and end the scan.
const maxHeaderLine = 1 << 20

// ExtractItems parses the contributed items declared in content's leading
// comment block. Scanning stops at the first line that is neither blank
// nor a comment. A plugin that declares no items returns an empty slice.
func ExtractItems(content []byte) ([]itemstore.Item, error) {
	var items []itemstore.Item

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), maxHeaderLine)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "#") {
			// End of the header block
			break
		}
		if !strings.HasPrefix(line, directivePrefix) {
			// Ordinary comment (including shebang lines)
			continue
		}

		item, err := parseDirective(strings.TrimPrefix(line, directivePrefix))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return items, nil
		}
		return nil, err
	}

	return items, nil
}

func parseDirective(directive string) (itemstore.Item, error) {
	fields := strings.Fields(directive)
	if len(fields) == 0 {
		return itemstore.Item{}, fmt.Errorf("empty directive")
	}

	switch fields[0] {
	case "item":
		if len(fields) < 2 {
			return itemstore.Item{}, fmt.Errorf("item directive missing key")
		}
		key := fields[1]
		rest := strings.TrimSpace(directive)
		rest = strings.TrimSpace(strings.TrimPrefix(rest, "item"))
		rest = strings.TrimSpace(strings.TrimPrefix(rest, key))
		return itemstore.Item{Key: key, Payload: rest}, nil
	default:
		return itemstore.Item{}, fmt.Errorf("unknown directive %q", fields[0])
	}
}
