package group

// Categories is the fixed list a group's category must come from
var Categories = []string{
	"Bible Study",
	"Prayer",
	"Youth",
	"Men",
	"Women",
	"Couples",
	"Worship",
	"Outreach",
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
