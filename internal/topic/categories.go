package topic

// Categories is the fixed list a topic's category must come from
var Categories = []string{
	"General Discussion",
	"Prayer Requests",
	"Bible Study",
	"Testimonies",
	"Questions",
	"Worship",
	"Events",
}

// IsValidCategory reports whether category is one of Categories
func IsValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}
