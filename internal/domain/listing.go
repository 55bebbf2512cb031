package domain

const (
	NoPrice    = "Price not specified"
	NoImage    = "No image"
	NoLocation = "Unknown"
)

// CSVColumns is the fixed column order of the listings log.
var CSVColumns = []string{
	"id", "category", "title", "price", "description",
	"link", "image", "premium", "location", "posted_date",
}

type Listing struct {
	ID          string `json:"id" db:"id"`
	Category    string `json:"category" db:"category"`
	Title       string `json:"title" db:"title"`
	Price       string `json:"price" db:"price"`
	Description string `json:"description" db:"description"`
	Link        string `json:"link" db:"link"`
	Image       string `json:"image" db:"image"`
	Premium     bool   `json:"premium" db:"premium"`
	Location    string `json:"location" db:"location"`
	PostedDate  string `json:"posted_date" db:"posted_date"`
}

// Record returns the listing as a CSV row in CSVColumns order.
func (l Listing) Record() []string {
	premium := "False"
	if l.Premium {
		premium = "True"
	}
	return []string{
		l.ID,
		l.Category,
		l.Title,
		l.Price,
		l.Description,
		l.Link,
		l.Image,
		premium,
		l.Location,
		l.PostedDate,
	}
}

// Category is one configured classifieds section.
type Category struct {
	Name string
	URL  string
}
