// Command ghostink scans PDF files for text that is present in the
// content stream but invisible on the rendered page.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/tsawler/ghostink"
)

const version = "0.1.0"

// CLI defines the command-line interface.
var CLI struct {
	Config  string     `help:"YAML config file with scan defaults." type:"path"`
	Scan    ScanCmd    `cmd:"" default:"withargs" help:"Scan a PDF for hidden text."`
	Version VersionCmd `cmd:"" help:"Print version information."`
}

// Config mirrors the YAML config file. Flags given on the command line
// take precedence over it.
type Config struct {
	Pages      []int  `yaml:"pages"`
	Background string `yaml:"background"`
	OCR        bool   `yaml:"ocr"`
	OCRLang    string `yaml:"ocr_lang"`
	Format     string `yaml:"format"`
}

// ScanCmd scans one PDF file.
type ScanCmd struct {
	Path       string `arg:"" help:"PDF file to scan." type:"existingfile"`
	Pages      []int  `short:"p" help:"Pages to scan, 1-indexed. Default is all pages."`
	Background string `short:"b" help:"Page background color as hex, e.g. ffffff or #f5f5f5. Default is white with per-page estimation."`
	OCR        bool   `help:"Corroborate candidates against page images with OCR (requires Tesseract)."`
	OCRLang    string `name:"ocr-lang" help:"Tesseract language for --ocr." default:""`
	Format     string `short:"f" help:"Output format." enum:"text,json," default:""`
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (v *VersionCmd) Run() error {
	fmt.Printf("ghostink %s\n", version)
	return nil
}

func (c *ScanCmd) Run() error {
	cfg, err := loadConfig(CLI.Config)
	if err != nil {
		return err
	}
	c.applyConfig(cfg)

	scanner := ghostink.Open(c.Path)

	if len(c.Pages) > 0 {
		scanner = scanner.Pages(c.Pages...)
	}
	if c.Background != "" {
		rgb, err := parseHexColor(c.Background)
		if err != nil {
			return err
		}
		scanner = scanner.Background(rgb)
	}
	if c.OCR {
		scanner = scanner.WithOCR()
		if c.OCRLang != "" {
			scanner = scanner.OCRLanguage(c.OCRLang)
		}
	}

	candidates, warnings, err := scanner.Scan()
	if err != nil {
		return err
	}

	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	if c.Format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(candidates)
	}

	fmt.Println(ghostink.FormatReport(candidates))
	return nil
}

// applyConfig fills in settings the command line left unset.
func (c *ScanCmd) applyConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	if len(c.Pages) == 0 {
		c.Pages = cfg.Pages
	}
	if c.Background == "" {
		c.Background = cfg.Background
	}
	if !c.OCR {
		c.OCR = cfg.OCR
	}
	if c.OCRLang == "" {
		c.OCRLang = cfg.OCRLang
	}
	if c.Format == "" {
		c.Format = cfg.Format
	}
}

func loadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Format != "" && cfg.Format != "text" && cfg.Format != "json" {
		return nil, fmt.Errorf("config format %q: want text or json", cfg.Format)
	}
	return &cfg, nil
}

// parseHexColor parses RGB hex notation, with or without a leading '#'.
func parseHexColor(s string) (int, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 {
		return 0, fmt.Errorf("background %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("background %q: %w", s, err)
	}
	return int(v), nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("ghostink"),
		kong.Description("Find hidden text in PDF files: invisible render mode, zero opacity, and background-colored spans."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
