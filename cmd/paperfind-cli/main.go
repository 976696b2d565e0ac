package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mnohosten/paperfind/pkg/compression"
	"github.com/mnohosten/paperfind/pkg/engine"
)

const banner = `paperfind CLI
Type 'help' for available commands, 'exit' to quit.

`

// CLI is the interactive shell over an open engine.
type CLI struct {
	eng     *engine.Engine
	scanner *bufio.Scanner
}

func main() {
	dataDir := flag.String("data-dir", "./data", "Directory holding the built indexes")
	corpusPath := flag.String("corpus", "./data/corpus.csv", "Path to the corpus CSV")
	compressionAlgo := flag.String("compression", "snappy", "Container compression: none, snappy, zstd, gzip")
	flag.Parse()

	algo, err := compression.ParseAlgorithm(*compressionAlgo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	cfg := engine.DefaultConfig(*dataDir, *corpusPath)
	cfg.Compression = algo

	eng, err := engine.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open engine: %v\n", err)
		os.Exit(1)
	}
	defer eng.Close()

	cli := &CLI{eng: eng, scanner: bufio.NewScanner(os.Stdin)}
	cli.Run()
}

// Run reads and executes commands until exit or EOF.
func (c *CLI) Run() {
	fmt.Print(banner)

	for {
		fmt.Print("> ")
		if !c.scanner.Scan() {
			return
		}

		line := strings.TrimSpace(c.scanner.Text())
		if line == "" {
			continue
		}

		command, arg, _ := strings.Cut(line, " ")
		switch command {
		case "exit", "quit":
			return
		case "help":
			c.printHelp()
		case "search":
			c.search(arg)
		case "complete":
			c.complete(arg)
		case "suggest":
			c.suggest(arg)
		case "add":
			c.add(arg)
		case "stats":
			c.stats()
		default:
			fmt.Printf("unknown command %q, type 'help'\n", command)
		}
	}
}

func (c *CLI) printHelp() {
	fmt.Print(`Commands:
  search <query>    ranked retrieval over the corpus
  complete <text>   autocomplete the final token
  suggest <text>    fuzzy typo suggestions
  add <json>        add a document ({"title":...,"abstract":...,"keywords":[...],"venue":...,"year":...})
  stats             index statistics
  exit              quit
`)
}

func (c *CLI) search(query string) {
	resp, err := c.eng.Search(query)
	if err != nil {
		fmt.Printf("search failed: %v\n", err)
		return
	}

	fmt.Printf("%d results for %q\n", resp.ResultsCount, resp.Query)
	for i, r := range resp.Results {
		if i >= 10 {
			fmt.Printf("... and %d more shown results\n", len(resp.Results)-10)
			break
		}
		fmt.Printf("%2d. [%.4f] %s (%s, %s) %s\n", i+1, r.Score, r.Title, r.Venue, r.Year, r.DocID)
	}
}

func (c *CLI) complete(text string) {
	for _, s := range c.eng.Autocomplete(text) {
		fmt.Println(s)
	}
}

func (c *CLI) suggest(text string) {
	for _, s := range c.eng.SuggestTypo(text) {
		fmt.Println(s)
	}
}

func (c *CLI) add(payload string) {
	var doc engine.Document
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		fmt.Printf("invalid document JSON: %v\n", err)
		return
	}

	docID, err := c.eng.AddDocument(&doc)
	if err != nil {
		fmt.Printf("add failed: %v\n", err)
		return
	}
	fmt.Printf("added %s\n", docID)
}

func (c *CLI) stats() {
	stats := c.eng.Stats()
	fmt.Printf("documents:        %d\n", stats.Documents)
	fmt.Printf("terms:            %d\n", stats.Terms)
	fmt.Printf("barrels:          %d\n", stats.Barrels)
	fmt.Printf("total doc length: %d\n", stats.TotalDocLength)
	fmt.Printf("avg doc length:   %.1f\n", stats.AvgDocLength)
	fmt.Printf("cache hits/miss:  %d/%d\n", stats.CacheHits, stats.CacheMisses)
}
