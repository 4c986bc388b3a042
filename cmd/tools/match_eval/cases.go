package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// Case is one labelled lookup. An empty Want means the input must not match anything.
type Case struct {
	Input string `json:"input"`
	Want  string `json:"want,omitempty"`
}

// CaseSet holds labelled lookups for both matchers.
// Stored lists the canonical names seeded into discovery memory before its cases run.
type CaseSet struct {
	Repository []Case   `json:"repository"`
	Stored     []string `json:"stored"`
	Memory     []Case   `json:"memory"`
}

// defaultCases covers known true matches and the collisions the guards exist to prevent
func defaultCases() CaseSet {
	return CaseSet{
		Repository: []Case{
			{Input: "Google", Want: "Google"},
			{Input: "google llc", Want: "Google"},
			{Input: "gogle", Want: "Google"},
			{Input: "Gooogle", Want: "Google"},
			{Input: "fb", Want: "Meta"},
			{Input: "Facebook Inc.", Want: "Meta"},
			{Input: "aws", Want: "Amazon"},
			{Input: "Amazn", Want: "Amazon"},
			{Input: "Microso", Want: "Microsoft"},
			{Input: "Microsoft Corporation", Want: "Microsoft"},
			{Input: "Netflx", Want: "Netflix"},
			{Input: "Goldman Sachs Group", Want: "Goldman Sachs"},
			{Input: "Consulting Group", Want: "Boston Consulting Group"},
			{Input: "AZ"},
			{Input: "mic"},
			{Input: "Me"},
			{Input: "Apple Bank for Savings"},
			{Input: "Meta Materials"},
			{Input: "Metabase"},
			{Input: "Googleplex Ventures"},
			{Input: "Amazonas Energia"},
			{Input: "Zynthex Labs"},
			{Input: "Obscure Regional Clinic"},
		},
		Stored: []string{"Zynthex Labs", "Acme Analytics", "Northwind Traders", "Blue Harbor Health"},
		Memory: []Case{
			{Input: "Zynthex Labs", Want: "Zynthex Labs"},
			{Input: "zynthex labs", Want: "Zynthex Labs"},
			{Input: "Zynthex Labs Inc.", Want: "Zynthex Labs"},
			{Input: "Northwind Trader", Want: "Northwind Traders"},
			{Input: "Blue Harbour Health", Want: "Blue Harbor Health"},
			{Input: "Acme Analytica"},
			{Input: "Acme Analysts"},
			{Input: "Northwind Tradecraft"},
			{Input: "Blue Harbor Wealth"},
			{Input: "Zyn"},
		},
	}
}

// loadCases reads a CaseSet from a JSON file
func loadCases(path string) (CaseSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CaseSet{}, fmt.Errorf("failed to read cases %s: %w", path, err)
	}
	var set CaseSet
	if err := json.Unmarshal(data, &set); err != nil {
		return CaseSet{}, fmt.Errorf("failed to parse cases %s: %w", path, err)
	}
	return set, nil
}
