package docs

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

func TestTopics(t *testing.T) {
	// Every topic listed in readme.md can be loaded, and every .md file is
	// listed in readme.md.
	file, err := os.Open("readme.md")
	if err != nil {
		t.Fatalf("failed to open readme.md: %v", err)
	}
	defer file.Close()

	var topicsInReadme []string
	scanner := bufio.NewScanner(file)
	topicRegex := regexp.MustCompile(`^\*\s+([^:]+):.*$`)
	for scanner.Scan() {
		if matches := topicRegex.FindStringSubmatch(scanner.Text()); len(matches) > 1 {
			topicsInReadme = append(topicsInReadme, strings.TrimSpace(matches[1]))
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("error scanning readme.md: %v", err)
	}

	for _, topic := range topicsInReadme {
		if _, err := GetTopic(topic); err != nil {
			t.Errorf("failed to get topic %q: %v", topic, err)
		}
	}

	all, err := GetAllTopics()
	if err != nil {
		t.Fatal(err)
	}
	for _, topic := range all {
		if !slices.Contains(topicsInReadme, topic) {
			t.Errorf("topic %q is not listed in readme.md", topic)
		}
	}

	everything, err := GetTopic("*")
	if err != nil {
		t.Fatal(err)
	}
	for _, topic := range all {
		content, _ := GetTopic(topic)
		if !strings.Contains(everything, content) {
			t.Errorf("topic * does not contain %q", topic)
		}
	}
	if _, err := GetTopics("ledger", "nope"); err == nil {
		t.Error("GetTopics() with an unknown topic should fail")
	}
}

// Block is a fenced code block of a topic.
type Block struct {
	Lang    string
	Content string
	File    string
	Line    int
}

func TestCodeBlocks(t *testing.T) {
	files, err := filepath.Glob("*.md")
	if err != nil {
		t.Fatal(err)
	}
	for _, file := range files {
		t.Run(file, func(t *testing.T) {
			title, blocks := parseMarkdown(t, file)
			if title == "" {
				t.Errorf("%s: does not start with a title", file)
			}
			for _, b := range blocks {
				switch b.Lang {
				case "json":
					var v map[string]any
					if err := json.Unmarshal([]byte(b.Content), &v); err != nil {
						t.Errorf("%s:%d: invalid json: %v", b.File, b.Line, err)
					}
				case "bash":
					for line := range strings.Lines(b.Content) {
						if !strings.HasPrefix(line, "ctax ") {
							t.Errorf("%s:%d: %q is not a ctax command", b.File, b.Line, line)
						}
					}
				default:
					t.Errorf("%s:%d: unexpected code block language %q", b.File, b.Line, b.Lang)
				}
			}
		})
	}
}

// parseMarkdown returns the first level 1 heading of file and its fenced
// code blocks.
func parseMarkdown(t *testing.T, file string) (title string, blocks []*Block) {
	t.Helper()
	content, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("failed to read %s: %v", file, err)
	}

	root := goldmark.DefaultParser().Parse(text.NewReader(content))
	if h, ok := root.FirstChild().(*ast.Heading); ok && h.Level == 1 {
		var b strings.Builder
		for i := 0; i < h.Lines().Len(); i++ {
			line := h.Lines().At(i)
			b.Write(line.Value(content))
		}
		title = b.String()
	}

	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !entering || !ok || fcb.Info == nil {
			return ast.WalkContinue, nil
		}
		var b strings.Builder
		for i := 0; i < fcb.Lines().Len(); i++ {
			line := fcb.Lines().At(i)
			b.Write(line.Value(content))
		}
		blocks = append(blocks, &Block{
			Lang:    string(fcb.Language(content)),
			Content: b.String(),
			File:    file,
			Line:    lineNumber(content, fcb.Info.Segment.Start),
		})
		return ast.WalkContinue, nil
	})
	return title, blocks
}

// lineNumber returns the line number of offset in source.
func lineNumber(source []byte, offset int) int {
	return bytes.Count(source[:offset], []byte{'\n'}) + 1
}
