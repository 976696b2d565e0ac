package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mnohosten/paperfind/pkg/server"
)

func main() {
	host := flag.String("host", "localhost", "Server host address")
	port := flag.Int("port", 8080, "Server port")
	dataDir := flag.String("data-dir", "./data", "Directory holding the built indexes")
	corpusPath := flag.String("corpus", "./data/corpus.csv", "Path to the corpus CSV")
	compressionAlgo := flag.String("compression", "snappy", "Container compression: none, snappy, zstd, gzip")
	barrelCache := flag.Int("barrel-cache", 8, "Number of loaded barrels kept in memory")
	corsOrigin := flag.String("cors-origin", "*", "CORS allowed origin")
	enableTLS := flag.Bool("tls", false, "Enable TLS")
	tlsCert := flag.String("tls-cert", "", "Path to TLS certificate file")
	tlsKey := flag.String("tls-key", "", "Path to TLS private key file")
	enableGraphQL := flag.Bool("graphql", false, "Enable the GraphQL endpoint (/graphql)")
	tokenFile := flag.String("token-file", "", "API token store guarding POST /documents")
	configFile := flag.String("config", "", "Optional YAML config file (flags override)")
	flag.Parse()

	config := server.DefaultConfig()
	if *configFile != "" {
		if err := server.LoadConfigFile(config, *configFile); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			config.Host = *host
		case "port":
			config.Port = *port
		case "data-dir":
			config.DataDir = *dataDir
		case "corpus":
			config.CorpusPath = *corpusPath
		case "compression":
			config.Compression = *compressionAlgo
		case "barrel-cache":
			config.BarrelCacheSize = *barrelCache
		case "cors-origin":
			config.AllowedOrigins = []string{*corsOrigin}
		case "tls":
			config.EnableTLS = *enableTLS
		case "tls-cert":
			config.TLSCertFile = *tlsCert
		case "tls-key":
			config.TLSKeyFile = *tlsKey
		case "graphql":
			config.EnableGraphQL = *enableGraphQL
		case "token-file":
			config.TokenFile = *tokenFile
		}
	})

	srv, err := server.New(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create server: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("paperfind server listening on %s:%d\n", config.Host, config.Port)
	if err := srv.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
