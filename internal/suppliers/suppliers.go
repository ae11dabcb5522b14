// Package suppliers is the directory of wholesale moulding and matting
// suppliers the shop orders from.
package suppliers

import "strings"

type Supplier struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Website        string   `json:"website"`
	OrderingPortal string   `json:"ordering_portal"`
	CatalogURL     string   `json:"catalog_url"`
	Specialties    []string `json:"specialties"`
	Status         string   `json:"status"`
}

const StatusActiveAccount = "Active Account"

// Default is the shop's current supplier list.
var Default = []Supplier{
	{
		ID:             1,
		Name:           "Larson Juhl",
		Description:    "Premium frame mouldings and professional framing supplies",
		Website:        "https://www.larsonjuhl.com",
		OrderingPortal: "https://shop.larsonjuhl.com",
		CatalogURL:     "/catalogs/larson-juhl-catalog.pdf",
		Specialties:    []string{"Premium Mouldings", "Custom Frames", "Conservation Materials"},
		Status:         StatusActiveAccount,
	},
	{
		ID:             2,
		Name:           "United Moulding",
		Description:    "Affordable frame mouldings and mat boards",
		Website:        "https://www.unitedmoulding.com",
		OrderingPortal: "https://www.unitedmoulding.com/login",
		CatalogURL:     "/catalogs/united-moulding-catalog.pdf",
		Specialties:    []string{"Standard Mouldings", "Mat Boards", "Bulk Orders"},
		Status:         StatusActiveAccount,
	},
	{
		ID:             3,
		Name:           "Framerica",
		Description:    "Contemporary and traditional frame styles",
		Website:        "https://www.framerica.com",
		OrderingPortal: "https://www.framerica.com/dealer-login",
		CatalogURL:     "/catalogs/framerica-catalog.pdf",
		Specialties:    []string{"Contemporary Frames", "Traditional Styles", "Quick Ship"},
		Status:         StatusActiveAccount,
	},
	{
		ID:             4,
		Name:           "Roma Moulding",
		Description:    "Italian-inspired decorative frames and ornate styles",
		Website:        "https://www.romamoulding.com",
		OrderingPortal: "https://www.romamoulding.com/dealer-portal",
		CatalogURL:     "/catalogs/roma-moulding-catalog.pdf",
		Specialties:    []string{"Ornate Frames", "Italian Designs", "Decorative Elements"},
		Status:         StatusActiveAccount,
	},
	{
		ID:             5,
		Name:           "Nielsen Bainbridge",
		Description:    "Professional matting and mounting supplies",
		Website:        "https://www.nielsen-bainbridge.com",
		OrderingPortal: "https://www.nielsen-bainbridge.com/trade-login",
		CatalogURL:     "/catalogs/nielsen-bainbridge-catalog.pdf",
		Specialties:    []string{"Mat Boards", "Mounting Supplies", "Preservation Materials"},
		Status:         StatusActiveAccount,
	},
	{
		ID:             6,
		Name:           "Omega Moulding",
		Description:    "Budget-friendly frames and basic supplies",
		Website:        "https://www.omegamoulding.com",
		OrderingPortal: "https://www.omegamoulding.com/dealer-access",
		CatalogURL:     "/catalogs/omega-moulding-catalog.pdf",
		Specialties:    []string{"Budget Frames", "Basic Supplies", "Volume Discounts"},
		Status:         StatusActiveAccount,
	},
}

type Directory struct {
	suppliers []Supplier
}

// NewDirectory serves list, or Default when list is empty.
func NewDirectory(list []Supplier) *Directory {
	if len(list) == 0 {
		list = Default
	}
	return &Directory{suppliers: list}
}

// Search returns suppliers whose name or any specialty contains query,
// ignoring case. An empty query returns every supplier.
func (d *Directory) Search(query string) []Supplier {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []Supplier{}
	for _, s := range d.suppliers {
		if q == "" || matches(s, q) {
			out = append(out, s)
		}
	}
	return out
}

func (d *Directory) Lookup(id int) (Supplier, bool) {
	for _, s := range d.suppliers {
		if s.ID == id {
			return s, true
		}
	}
	return Supplier{}, false
}

func matches(s Supplier, q string) bool {
	if strings.Contains(strings.ToLower(s.Name), q) {
		return true
	}
	for _, sp := range s.Specialties {
		if strings.Contains(strings.ToLower(sp), q) {
			return true
		}
	}
	return false
}
