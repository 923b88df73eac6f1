package main

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pluja/pocketbase"
	"github.com/portfolio-chat/portfoliochat/persona"
	"github.com/tmc/langchaingo/documentloaders"
	"gopkg.in/yaml.v3"
)

type ImportCommand struct {
	PocketbaseURL string   `help:"The URL of the Pocketbase server holding resume sections." env:"POCKETBASE_URL" default:""`
	Collection    string   `help:"The Pocketbase collection of resume sections." env:"COLLECTION" default:"resume"`
	Expand        string   `help:"The fields to expand." env:"EXPAND" default:""`
	Sort          string   `help:"The Pocketbase sort order of sections." env:"SORT" default:"created"`
	Files         string   `help:"Comma separated list of fields that contain Pocketbase file references." env:"FILES" default:""`
	ResumePDF     []string `help:"Local resume PDFs to add to the knowledge base." name:"resume-pdf"`
	Base          string   `help:"Persona file to take instructions and settings from. Defaults to the embedded persona." env:"PERSONA_FILE" default:""`
	Output        string   `help:"Where to write the persona file." short:"o" default:"persona.yaml"`
	DryRun        bool     `help:"Print the persona instead of writing it." env:"DRY_RUN" default:"false"`
	LogLevel      string   `help:"The log level to use." env:"LOG_LEVEL" default:"info"`
}

func (c ImportCommand) Run(ctx context.Context) (err error) {
	log := getLogger(c.LogLevel)

	p, err := persona.Load(c.Base)
	if err != nil {
		return fmt.Errorf("failed to load base persona: %w", err)
	}

	var sections []string
	if c.PocketbaseURL != "" {
		src := NewPocketbaseSource(c.PocketbaseURL, pocketbase.NewClient(c.PocketbaseURL), c.Collection, c.Expand, c.Files)
		src.Sort = c.Sort
		for section := range src.Sections(ctx) {
			log.Info("imported section", slog.String("id", section.ID), slog.String("title", section.Title))
			sections = append(sections, section.String())
		}
		if src.Error != nil {
			return fmt.Errorf("failed to import from Pocketbase: %w", src.Error)
		}
	}
	for _, name := range c.ResumePDF {
		text, err := readPDFFile(ctx, name)
		if err != nil {
			return err
		}
		log.Info("imported resume", slog.String("file", name), slog.Int("length", len(text)))
		sections = append(sections, text)
	}
	if len(sections) == 0 {
		return fmt.Errorf("nothing to import: set --pocketbase-url or --resume-pdf")
	}
	p.Context.KnowledgeBase = strings.Join(sections, "\n")

	out, err := p.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode persona: %w", err)
	}
	if c.DryRun {
		log.Info("skipping write in dry run mode", slog.String("output", c.Output))
		_, err = os.Stdout.Write(out)
		return err
	}
	if err = os.WriteFile(c.Output, out, 0o644); err != nil {
		return fmt.Errorf("failed to write persona: %w", err)
	}
	log.Info("persona written", slog.String("output", c.Output), slog.Int("sections", len(sections)))
	return nil
}

func NewPocketbaseSource(baseURL string, client *pocketbase.Client, collection, expand, files string) *PocketbaseSource {
	var fileFields []string
	for _, f := range strings.Split(files, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fileFields = append(fileFields, f)
		}
	}
	return &PocketbaseSource{
		baseURL:    baseURL,
		client:     client,
		collection: collection,
		expand:     expand,
		fileFields: fileFields,
		Sort:       "created",
		PageSize:   50,
	}
}

// PocketbaseSource reads resume sections from a Pocketbase collection.
type PocketbaseSource struct {
	// baseURL for downloading files, e.g. http://localhost:8090
	baseURL    string
	client     *pocketbase.Client
	collection string
	expand     string
	fileFields []string
	Sort       string
	PageSize   int
	Error      error
}

type Section struct {
	ID    string
	Title string
	Body  string
}

func (s Section) String() string {
	return strings.ToUpper(s.Title) + ":\n" + strings.TrimRight(s.Body, "\n") + "\n"
}

func (p *PocketbaseSource) Sections(ctx context.Context) iter.Seq[Section] {
	return func(yield func(Section) bool) {
		for page := 1; ; page++ {
			if ctx.Err() != nil {
				p.Error = ctx.Err()
				return
			}
			response, err := p.client.List(p.collection, pocketbase.ParamsList{
				Page:   page,
				Size:   p.PageSize,
				Sort:   p.Sort,
				Expand: p.expand,
			})
			if err != nil {
				p.Error = err
				return
			}
			if len(response.Items) == 0 {
				return
			}
			for _, item := range response.Items {
				section, err := p.section(ctx, item)
				if err != nil {
					p.Error = err
					return
				}
				if !yield(section) {
					return
				}
			}
		}
	}
}

func (p *PocketbaseSource) section(ctx context.Context, record map[string]any) (s Section, err error) {
	s.ID, _ = record["id"].(string)
	s.Title = firstString(record, []string{"title", "name", "section"}, "Untitled")
	inlineExpanded(record)

	// Collect file names before the record is pruned.
	var pdfs []string
	for _, field := range p.fileFields {
		names, _ := record[field].([]any)
		for _, name := range names {
			name, ok := name.(string)
			if !ok {
				return s, fmt.Errorf("record %s: file name in %q is not a string", s.ID, field)
			}
			if strings.EqualFold(filepath.Ext(name), ".pdf") {
				pdfs = append(pdfs, name)
			}
		}
		delete(record, field)
	}

	for _, k := range []string{"title", "name", "section", "order"} {
		delete(record, k)
	}
	prune(record, []string{"id", "collectionId", "collectionName", "created", "updated"})

	var sb strings.Builder
	if body, ok := record["body"].(string); ok && len(record) == 1 {
		sb.WriteString(body)
		sb.WriteString("\n")
	} else if len(record) > 0 {
		if err = yaml.NewEncoder(&sb).Encode(record); err != nil {
			return s, fmt.Errorf("record %s: failed to encode: %w", s.ID, err)
		}
	}
	for _, name := range pdfs {
		text, err := p.downloadPDFText(ctx, s.ID, name)
		if err != nil {
			return s, fmt.Errorf("record %s: %w", s.ID, err)
		}
		sb.WriteString(text)
	}
	s.Body = sb.String()
	return s, nil
}

func (p *PocketbaseSource) downloadPDFText(ctx context.Context, id, filename string) (string, error) {
	downloadURL, err := createURL(p.baseURL, "api", "files", p.collection, id, filename)
	if err != nil {
		return "", fmt.Errorf("failed to create download URL: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create download request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download file %s: unexpected status %d", filename, resp.StatusCode)
	}

	pdfFile, err := os.CreateTemp("", "portfolio-import-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(pdfFile.Name())
	defer pdfFile.Close()

	fileSize, err := io.Copy(pdfFile, resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return readPDF(ctx, pdfFile, fileSize)
}

func readPDFFile(ctx context.Context, name string) (string, error) {
	f, err := os.Open(name)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", name, err)
	}
	text, err := readPDF(ctx, f, fi.Size())
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return text, nil
}

func readPDF(ctx context.Context, r io.ReaderAt, size int64) (string, error) {
	docs, err := documentloaders.NewPDF(r, size).Load(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load PDF: %w", err)
	}
	var sb strings.Builder
	for _, doc := range docs {
		sb.WriteString(doc.PageContent)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func createURL(baseURL string, pathSegments ...string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse baseURL: %w", err)
	}
	u.Path = strings.Join(pathSegments, "/")
	return u.String(), nil
}

func firstString(record map[string]any, keys []string, defaultValue string) string {
	for _, key := range keys {
		if v, ok := record[key].(string); ok && v != "" {
			return v
		}
	}
	return defaultValue
}

// inlineExpanded replaces relation IDs with the records Pocketbase returned
// under "expand", at every level of the record.
func inlineExpanded(v any) {
	switch v := v.(type) {
	case map[string]any:
		if expanded, ok := v["expand"].(map[string]any); ok {
			for k, ev := range expanded {
				if _, isField := v[k]; isField {
					v[k] = ev
				}
			}
			delete(v, "expand")
		}
		for _, child := range v {
			inlineExpanded(child)
		}
	case []any:
		for _, child := range v {
			inlineExpanded(child)
		}
	}
}

// prune removes keys and empty values from the record, recursively.
func prune(v any, keys []string) {
	switch v := v.(type) {
	case map[string]any:
		for _, k := range keys {
			delete(v, k)
		}
		for k, child := range v {
			prune(child, keys)
			if isEmpty(child) {
				delete(v, k)
			}
		}
	case []any:
		for _, child := range v {
			prune(child, keys)
		}
	}
}

func isEmpty(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case map[string]any:
		return len(v) == 0
	case []any:
		return len(v) == 0
	}
	return false
}
