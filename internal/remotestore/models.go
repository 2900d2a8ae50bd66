package remotestore

// PagePayload is the provenance stored with every page point. Retrieval is
// always filtered by SessionID so concurrent sessions never see each
// other's pages.
type PagePayload struct {
	SessionID string
	Document  string
	Page      int
}

// PagePoint is one page of a document embedded as a set of sub-vectors.
type PagePoint struct {
	ID      string // UUID
	Vectors [][]float32
	Payload PagePayload
}

// ScoredPage is a query hit: payload only, no vectors.
type ScoredPage struct {
	Payload PagePayload
	Score   float32
}
