// Copyright 2025 Parcival Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package parser turns raw file bytes into Documents ready for chunking.
// Supported formats are plain text, Markdown and PDF, selected by file
// extension.
package parser

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/parcival-labs/ragstore/core"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Parse converts raw file bytes into one or more Documents. The format is
// chosen by the extension of name. PDF input yields one Document per page
// with the page number in metadata; text and Markdown yield a single
// Document. Unknown extensions are treated as plain text.
func Parse(name string, data []byte) ([]core.Document, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".txt", "":
		return parseText(name, data, "text/plain"), nil
	case ".md", ".markdown":
		return parseMarkdown(name, data)
	case ".pdf":
		return parsePDF(name, data)
	default:
		slog.Warn("unknown file format, treating as plain text", "name", name, "ext", ext)
		return parseText(name, data, "text/plain"), nil
	}
}

func parseText(name string, data []byte, mimeType string) []core.Document {
	return []core.Document{{
		Content:  string(data),
		Metadata: map[string]any{"source": name},
		Source:   name,
		MimeType: mimeType,
	}}
}

// parseMarkdown extracts the plain text of a Markdown file by walking the
// parsed AST, so formatting syntax never ends up in embeddings. Block
// boundaries become blank lines, which is what the chunker splits on.
func parseMarkdown(name string, data []byte) ([]core.Document, error) {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(data))

	var sb strings.Builder
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if _, isBlock := n.(*ast.Document); !isBlock && n.Type() == ast.TypeBlock {
				sb.WriteString("\n\n")
			}
			return ast.WalkContinue, nil
		}
		if t, ok := n.(*ast.Text); ok {
			sb.Write(t.Segment.Value(data))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse markdown %s: %w", name, err)
	}

	return []core.Document{{
		Content:  strings.TrimSpace(sb.String()),
		Metadata: map[string]any{"source": name},
		Source:   name,
		MimeType: "text/markdown",
	}}, nil
}

// parsePDF extracts plain text page by page. Pages that fail to decode are
// skipped rather than failing the whole file; scanned PDFs routinely contain
// undecodable pages.
func parsePDF(name string, data []byte) ([]core.Document, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", name, err)
	}

	var docs []core.Document
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		docs = append(docs, core.Document{
			Content: content,
			Metadata: map[string]any{
				"source": name,
				"page":   i,
			},
			Source:   name,
			MimeType: "application/pdf",
		})
	}
	return docs, nil
}
