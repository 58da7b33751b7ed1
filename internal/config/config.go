// Package config holds the global configuration shared across commands.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Global configuration variables
var (
	// PageSize is the number of results per page.
	PageSize int
	// EnrichTimeout bounds each secondary-source race.
	EnrichTimeout time.Duration
	// RelatedLimit caps the related-book list.
	RelatedLimit int
	// RecommendURL is the base URL of the smart-recommendation service.
	RecommendURL string
	// GoogleBooksAPIKey is the optional Google Books API key.
	GoogleBooksAPIKey string
	// CorpusFile is the default corpus file path.
	CorpusFile string
	// CorpusDB is the default corpus SQLite database path.
	CorpusDB string
	// ServerListen is the HTTP API listen address.
	ServerListen string
)

// InitConfig initializes the global configuration from viper.
func InitConfig() {
	viper.SetDefault("search.pagesize", 12)
	viper.SetDefault("enrich.timeout", "3s")
	viper.SetDefault("enrich.related", 5)
	viper.SetDefault("recommend.url", "http://127.0.0.1:5001")
	viper.SetDefault("corpus.file", "./books.json")
	viper.SetDefault("server.listen", ":8080")

	PageSize = viper.GetInt("search.pagesize")
	EnrichTimeout = parseTimeout(viper.GetString("enrich.timeout"))
	RelatedLimit = viper.GetInt("enrich.related")
	RecommendURL = viper.GetString("recommend.url")
	GoogleBooksAPIKey = viper.GetString("googlebooks.apikey")
	CorpusFile = viper.GetString("corpus.file")
	CorpusDB = viper.GetString("corpus.dbfile")
	ServerListen = viper.GetString("server.listen")
}

func parseTimeout(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 3 * time.Second
	}
	return d
}
