package models

import (
	"fmt"
	"strings"
	"time"
)

type Kind string

const (
	KindKB  Kind = "kb"
	KindPDF Kind = "pdf"
)

type Topic string

const (
	TopicDriving Topic = "driving"
	TopicWeb     Topic = "web"
	TopicAbout   Topic = "about"
	TopicAll     Topic = "all"

	// TopicAny tags a unit that is eligible for every topic.
	TopicAny Topic = "*"
)

// Domains lists the scoped topics in classifier priority order.
var Domains = []Topic{TopicDriving, TopicWeb, TopicAbout}

func ParseTopic(s string) (Topic, bool) {
	t := Topic(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case TopicDriving, TopicWeb, TopicAbout, TopicAll:
		return t, true
	}
	return "", false
}

type TextUnit struct {
	ID        string `json:"id"`
	Kind      Kind   `json:"kind"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	TopicTag  Topic  `json:"topic"`
	Page      int    `json:"page,omitempty"`
	SourceURL string `json:"url,omitempty"`
}

// Source is the citation form of a unit.
type Source struct {
	Kind  Kind   `json:"kind"`
	ID    string `json:"id"`
	Title string `json:"title"`
	Page  int    `json:"page,omitempty"`
	URL   string `json:"url,omitempty"`
}

func SourceOf(u TextUnit) Source {
	s := Source{Kind: u.Kind, ID: u.ID, Title: u.Title}
	if u.Kind == KindPDF {
		s.Page = u.Page
		s.URL = u.SourceURL
	}
	return s
}

func (s Source) String() string {
	if s.Kind == KindPDF {
		out := fmt.Sprintf("%s, p.%d [pdf:%s]", s.Title, s.Page, s.ID)
		if s.URL != "" {
			out += " " + s.URL
		}
		return out
	}
	return fmt.Sprintf("%s [kb:%s]", s.Title, s.ID)
}

// Doc is the wire shape served and consumed by the docs endpoint.
type Doc struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
	Page  int    `json:"page"`
	URL   string `json:"url"`
	Topic string `json:"topic,omitempty"`
}

// UnitTag maps a stored topic onto a unit tag. Empty, "all" and unknown
// topics make the unit eligible everywhere.
func UnitTag(topic string) Topic {
	t := Topic(strings.ToLower(strings.TrimSpace(topic)))
	switch t {
	case TopicDriving, TopicWeb, TopicAbout, TopicAny:
		return t
	}
	return TopicAny
}

func (d Doc) Unit() TextUnit {
	tag := UnitTag(d.Topic)
	return TextUnit{ID: d.ID, Kind: KindPDF, Title: d.Title, Body: d.Text, TopicTag: tag, Page: d.Page, SourceURL: d.URL}
}

func DocOf(u TextUnit) Doc {
	return Doc{ID: u.ID, Title: u.Title, Text: u.Body, Page: u.Page, URL: u.SourceURL, Topic: string(u.TopicTag)}
}

type Turn struct {
	TurnID    string    `json:"turn_id"`
	SessionID string    `json:"session_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Topic     Topic     `json:"topic"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
}
