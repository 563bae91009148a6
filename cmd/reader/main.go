// Command reader is a terminal client for the decode server: it loads an
// article, streams an explanation for one paragraph or a highlighted span,
// and keeps a local concept ledger so repeat concepts are not re-explained.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/decode-reader/core/internal/reader/apiclient"
	"github.com/decode-reader/core/internal/reader/ledger"
	"github.com/decode-reader/core/internal/reader/selection"
	"github.com/decode-reader/core/internal/reader/session"
	"github.com/decode-reader/core/internal/reader/textsplit"
	"go.uber.org/zap"
)

func main() {
	var (
		serverURL  = flag.String("server", "http://localhost:3001", "decode server base URL")
		articleURL = flag.String("url", "", "article URL to extract via the server")
		file       = flag.String("file", "", "read article text from file ('-' for stdin)")
		title      = flag.String("title", "Article", "article title")
		depth      = flag.String("depth", "standard", "explanation depth: eli5 | standard | technical")
		paragraph  = flag.Int("paragraph", 0, "paragraph index to explain")
		highlight  = flag.String("highlight", "", "explain this highlighted span instead of the whole paragraph")
		ledgerPath = flag.String("ledger", defaultLedgerPath(), "concept ledger file")
		email      = flag.String("email", os.Getenv("DECODE_EMAIL"), "account email (enables saving)")
		password   = flag.String("password", os.Getenv("DECODE_PASSWORD"), "account password")
		save       = flag.Bool("save", false, "persist the article and explanation (requires login)")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := apiclient.New(*serverURL)
	if *email != "" && *password != "" {
		if _, err := client.Login(ctx, apiclient.Credentials{Email: *email, Password: *password}); err != nil {
			fatalf("login failed: %v", err)
		}
	}

	art, err := loadArticle(ctx, client, *articleURL, *file, *title)
	if err != nil {
		fatalf("%v", err)
	}
	if len(art.Paragraphs) == 0 {
		fatalf("article has no paragraphs")
	}
	if *paragraph < 0 || *paragraph >= len(art.Paragraphs) {
		fatalf("paragraph index %d out of range (article has %d)", *paragraph, len(art.Paragraphs))
	}

	model := selection.NewModel()
	var target selection.Target
	if *highlight != "" {
		target, err = model.Highlight(*art, *paragraph, *highlight)
	} else {
		target, err = model.Paragraph(*art, *paragraph)
	}
	if err != nil {
		fatalf("%v", err)
	}

	led := ledger.Open(*ledgerPath)
	mgr := session.NewManager(client, led, logger)

	if *save {
		if !client.HasToken() {
			fatalf("-save requires -email and -password")
		}
		articleID, err := client.CreateArticle(ctx, art.Title, art.FullText, art.Paragraphs)
		if err != nil {
			fatalf("could not save article: %v", err)
		}
		mgr.OnFinalize(func(key string, req session.Request, result session.Result) {
			err := client.SaveExplanation(context.Background(), apiclient.SavedExplanation{
				ArticleID:     articleID,
				Type:          req.Target.Kind,
				SelectionText: result.QuotedText,
				Depth:         req.Depth,
				Explanation:   result.Explanation,
				Concepts:      result.Concepts,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: explanation not saved: %v\n", err)
			}
		})
	}

	fmt.Printf("── %s ──\n%s\n\n", art.Title, target.SubjectText)

	<-mgr.Explain(ctx, session.Request{Target: target, Title: art.Title, Depth: *depth})

	result, state, ok := mgr.Snapshot(target.Key)
	if !ok {
		fatalf("no result produced")
	}

	fmt.Println(result.Explanation)
	if len(result.Concepts) > 0 {
		fmt.Printf("\nconcepts: %s\n", strings.Join(result.Concepts, ", "))
	}
	if state == session.StateFinalizedError {
		os.Exit(1)
	}
}

func loadArticle(ctx context.Context, client *apiclient.Client, url, file, title string) (*selection.Article, error) {
	if url != "" {
		extracted, err := client.ExtractFromURL(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("extract failed: %w", err)
		}
		return &selection.Article{
			Title:      extracted.Title,
			Paragraphs: extracted.Paragraphs,
			FullText:   extracted.FullText,
		}, nil
	}

	if file == "" {
		return nil, fmt.Errorf("either -url or -file is required")
	}

	var raw []byte
	var err error
	if file == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, fmt.Errorf("read article text: %w", err)
	}

	text := string(raw)
	paragraphs := textsplit.Paragraphs(text)
	return &selection.Article{
		Title:      title,
		Paragraphs: paragraphs,
		FullText:   strings.Join(paragraphs, "\n\n"),
	}, nil
}

func defaultLedgerPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "decode_concepts.json"
	}
	return filepath.Join(home, ".decode", "concepts.json")
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
