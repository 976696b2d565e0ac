// Package graphql exposes the search engine through an opt-in GraphQL
// endpoint: search, autocomplete, typo suggestions, and raw document
// fetch.
package graphql

import (
	"errors"

	"github.com/graphql-go/graphql"

	"github.com/mnohosten/paperfind/pkg/docstore"
	"github.com/mnohosten/paperfind/pkg/engine"
)

// Schema builds the GraphQL schema over the engine.
func Schema(eng *engine.Engine) (graphql.Schema, error) {
	searchResultType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "SearchResult",
		Description: "A ranked search hit",
		Fields: graphql.Fields{
			"docId":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"score":     &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
			"title":     &graphql.Field{Type: graphql.String},
			"abstract":  &graphql.Field{Type: graphql.String},
			"keywords":  &graphql.Field{Type: graphql.String},
			"year":      &graphql.Field{Type: graphql.String},
			"venue":     &graphql.Field{Type: graphql.String},
			"citations": &graphql.Field{Type: graphql.String},
			"url":       &graphql.Field{Type: graphql.String},
		},
	})

	searchResponseType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "SearchResponse",
		Description: "Ranked results for a query",
		Fields: graphql.Fields{
			"resultsCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"query":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"results":      &graphql.Field{Type: graphql.NewList(searchResultType)},
		},
	})

	documentType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "Document",
		Description: "A raw corpus record",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"title":      &graphql.Field{Type: graphql.String},
			"keywords":   &graphql.Field{Type: graphql.String},
			"venue":      &graphql.Field{Type: graphql.String},
			"year":       &graphql.Field{Type: graphql.String},
			"nCitation":  &graphql.Field{Type: graphql.String},
			"url":        &graphql.Field{Type: graphql.String},
			"abstract":   &graphql.Field{Type: graphql.String},
			"authors":    &graphql.Field{Type: graphql.String},
			"docType":    &graphql.Field{Type: graphql.String},
			"references": &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"search": &graphql.Field{
				Type:        searchResponseType,
				Description: "Ranked retrieval over the corpus",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					query, _ := p.Args["query"].(string)
					resp, err := eng.Search(query)
					if err != nil {
						return nil, err
					}
					return searchResponseMap(resp), nil
				},
			},
			"autocomplete": &graphql.Field{
				Type:        graphql.NewList(graphql.String),
				Description: "Prefix completions for the final query token",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					query, _ := p.Args["query"].(string)
					return eng.Autocomplete(query), nil
				},
			},
			"suggest": &graphql.Field{
				Type:        graphql.NewList(graphql.String),
				Description: "Fuzzy typo suggestions over the lexicon",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					query, _ := p.Args["query"].(string)
					return eng.SuggestTypo(query), nil
				},
			},
			"document": &graphql.Field{
				Type:        documentType,
				Description: "Raw record fetch by document ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(string)
					rec, err := eng.Document(id)
					if errors.Is(err, docstore.ErrNotFound) {
						return nil, nil
					}
					if err != nil {
						return nil, err
					}
					return documentMap(rec), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: queryType})
}

func searchResponseMap(resp *engine.SearchResponse) map[string]interface{} {
	results := make([]map[string]interface{}, len(resp.Results))
	for i, r := range resp.Results {
		results[i] = map[string]interface{}{
			"docId":     r.DocID,
			"score":     r.Score,
			"title":     r.Title,
			"abstract":  r.Abstract,
			"keywords":  r.Keywords,
			"year":      r.Year,
			"venue":     r.Venue,
			"citations": r.Citations,
			"url":       r.URL,
		}
	}
	return map[string]interface{}{
		"resultsCount": resp.ResultsCount,
		"query":        resp.Query,
		"results":      results,
	}
}

func documentMap(rec *docstore.Record) map[string]interface{} {
	return map[string]interface{}{
		"id":         rec.ID,
		"title":      rec.Title,
		"keywords":   rec.Keywords,
		"venue":      rec.Venue,
		"year":       rec.Year,
		"nCitation":  rec.NCitation,
		"url":        rec.URL,
		"abstract":   rec.Abstract,
		"authors":    rec.Authors,
		"docType":    rec.DocType,
		"references": rec.References,
	}
}
