package models

// PDFPage is the extracted text of one page
type PDFPage struct {
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
	WordCount  int    `json:"word_count"`
}

// PDFMetadata is the document information dictionary
type PDFMetadata struct {
	Title        string `json:"title"`
	Author       string `json:"author"`
	Subject      string `json:"subject"`
	Creator      string `json:"creator"`
	Producer     string `json:"producer"`
	CreationDate string `json:"creation_date"`
	PageCount    int    `json:"page_count"`
}

// PDFDocument is the result of document extraction
type PDFDocument struct {
	URL       string      `json:"url"`
	Filename  string      `json:"filename"`
	Metadata  PDFMetadata `json:"metadata"`
	Pages     []PDFPage   `json:"pages"`
	FullText  string      `json:"full_text"`
	WordCount int         `json:"word_count"`
	Method    string      `json:"method"`
}

// Title returns the metadata title, falling back to the filename
func (d *PDFDocument) Title() string {
	if d.Metadata.Title != "" {
		return d.Metadata.Title
	}
	return d.Filename
}
