// Package content serves the landing page's static copy.
package content

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var raw []byte

type NavLink struct {
	Name string `yaml:"name" json:"name"`
	Href string `yaml:"href" json:"href"`
}

type Benefit struct {
	ID          int    `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Icon        Icon   `yaml:"icon" json:"icon"`
}

type Testimonial struct {
	ID     int    `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	Role   string `yaml:"role" json:"role"`
	Quote  string `yaml:"quote" json:"quote"`
	Rating int    `yaml:"rating" json:"rating"`
	Image  string `yaml:"image" json:"image"`
}

type FaqItem struct {
	ID       int    `yaml:"id" json:"id"`
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
}

type Promotion struct {
	Label string `yaml:"label" json:"label"`
	Code  string `yaml:"code" json:"code"`
}

type Plan struct {
	ID          string  `yaml:"id" json:"id"`
	Title       string  `yaml:"title" json:"title"`
	Amount      float64 `yaml:"amount" json:"amount"`
	Unit        string  `yaml:"unit,omitempty" json:"unit,omitempty"`
	Description string  `yaml:"description" json:"description"`
	CTA         string  `yaml:"cta" json:"cta"`
	Badge       string  `yaml:"badge,omitempty" json:"badge,omitempty"`
	Icon        Icon    `yaml:"icon" json:"icon"`
	// Display is filled in at load time from Amount.
	Display string `yaml:"-" json:"display"`
}

type Pricing struct {
	Title     string    `yaml:"title" json:"title"`
	Subtitle  string    `yaml:"subtitle" json:"subtitle"`
	Promotion Promotion `yaml:"promotion" json:"promotion"`
	Plans     []Plan    `yaml:"plans" json:"plans"`
	Features  []string  `yaml:"features" json:"features"`
}

type AppScreen struct {
	ID          string   `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description"`
	Icon        Icon     `yaml:"icon" json:"icon"`
	Features    []string `yaml:"features" json:"features"`
}

type Document struct {
	NavLinks     []NavLink     `yaml:"navLinks" json:"navLinks"`
	Benefits     []Benefit     `yaml:"benefits" json:"benefits"`
	Testimonials []Testimonial `yaml:"testimonials" json:"testimonials"`
	FAQ          []FaqItem     `yaml:"faq" json:"faq"`
	Pricing      Pricing       `yaml:"pricing" json:"pricing"`
	AppScreens   []AppScreen   `yaml:"appScreens" json:"appScreens"`
}

// Formatter renders a rupee amount for display.
type Formatter func(amount float64) string

// Parse decodes a content document and resolves plan display amounts.
func Parse(b []byte, format Formatter) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}
	if format != nil {
		for i := range doc.Pricing.Plans {
			doc.Pricing.Plans[i].Display = format(doc.Pricing.Plans[i].Amount)
		}
	}
	return &doc, nil
}

var (
	once   sync.Once
	doc    *Document
	docErr error
)

// Load returns the embedded document, parsed once per process.
func Load(format Formatter) (*Document, error) {
	once.Do(func() { doc, docErr = Parse(raw, format) })
	return doc, docErr
}
