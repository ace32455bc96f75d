package model

// PublicationMatch is a single knowledge-graph search hit for a publication.
// QID is empty when no QID marker could be extracted from the snippet.
// Exactly one of ArxivID and DOI is set, depending on the lookup kind.
type PublicationMatch struct {
	QID     string
	ArxivID string
	DOI     string
	Title   string
	Snippet string
}
