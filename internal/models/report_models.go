package models

import (
	"encoding/base64"
	"time"
)

type Rating string

type Summary struct {
	Scheme             string            `json:"scheme"`
	Total              int               `json:"total"`
	Labels             []Label           `json:"labels"`
	Counts             map[Label]int     `json:"counts"`
	Percentages        map[Label]float64 `json:"percentages"`
	PositivePercentage float64           `json:"positive_percentage"`
	NeutralPercentage  float64           `json:"neutral_percentage"`
	NegativePercentage float64           `json:"negative_percentage"`
	Rating             Rating            `json:"rating,omitempty"`
}

type KeywordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

type ChartArtifact struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

func (c ChartArtifact) Base64() string {
	return base64.StdEncoding.EncodeToString(c.Data)
}

func (c ChartArtifact) DataURI() string {
	if len(c.Data) == 0 {
		return ""
	}
	return "data:" + c.MIMEType + ";base64," + c.Base64()
}

type Report struct {
	ID               string         `json:"id"`
	Entity           string         `json:"entity,omitempty"`
	Scorer           string         `json:"scorer"`
	GeneratedAt      time.Time      `json:"generated_at"`
	Summary          Summary        `json:"summary"`
	PositiveKeywords []KeywordCount `json:"positive_keywords"`
	NegativeKeywords []KeywordCount `json:"negative_keywords"`
	// Keywords covers every matched record. Only set for unfiltered reports.
	Keywords []KeywordCount  `json:"keywords,omitempty"`
	Chart    ChartArtifact   `json:"chart"`
	Records  []LabeledRecord `json:"records,omitempty"`
}
