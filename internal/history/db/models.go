package db

type Run struct {
	ID         string
	StartedAt  int64
	FinishedAt int64
	Retailers  string
	Extracted  int64
	Dropped    int64
}

type RunItem struct {
	RunID    string
	Position int64
	Name     string
	Price    string
	Url      string
	Retailer string
	Category string
}
