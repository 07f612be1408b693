package catalog

import (
	"fmt"

	"storefront-service/internal/models"
)

// Catalog is the fixed, read-only set of purchasable products.
type Catalog struct {
	products []models.Product
	byID     map[int64]*models.Product
}

// New builds a catalog over the given products.
func New(products []models.Product) *Catalog {
	byID := make(map[int64]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return &Catalog{products: products, byID: byID}
}

// Default returns the built-in SmartAero product catalog.
func Default() *Catalog {
	return New(defaultProducts)
}

// Products returns all products in catalog order.
func (c *Catalog) Products() []models.Product {
	return c.products
}

// GetProduct retrieves a product by ID.
func (c *Catalog) GetProduct(id int64) (*models.Product, error) {
	p, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("product not found: %d", id)
	}
	return p, nil
}

// Categories returns the facet list: "all" followed by the distinct
// categories of categorized products, in catalog order. Products without a
// category are dropped from the facet list.
func (c *Catalog) Categories() []string {
	categories := []string{"all"}
	seen := make(map[string]bool)
	for _, p := range c.products {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		categories = append(categories, p.Category)
	}
	return categories
}

var defaultProducts = []models.Product{
	{
		ID:          1,
		Name:        "AeroSense Field Hub",
		Description: "Central gateway that links every SmartAero sensor in a field to the cloud over LoRa.",
		Image:       "/images/products/field-hub.jpg",
		Price:       249.99,
		Category:    "hubs",
		Features:    []string{"LoRa mesh", "Solar powered", "IP67 enclosure", "OTA updates"},
		Rating:      4.7,
		Reviews: []models.Review{
			{ID: 1, UserName: "Marta K.", Rating: 5, Comment: "Survived a full season outdoors without a hiccup.", Date: "2025-04-12"},
			{ID: 2, UserName: "J. Osei", Rating: 4, Comment: "Setup took an hour, coverage is excellent.", Date: "2025-05-03"},
		},
		Specifications: map[string]string{
			"Range":   "10 km line of sight",
			"Power":   "5W solar + LiFePO4 backup",
			"Uplink":  "LTE-M / Ethernet",
			"Sensors": "up to 200 nodes",
		},
	},
	{
		ID:          2,
		Name:        "SoilProbe Mini",
		Description: "Wireless soil moisture and temperature probe for row crops.",
		Image:       "/images/products/soilprobe-mini.jpg",
		Price:       59.99,
		Category:    "sensors",
		Features:    []string{"Moisture + temp", "2 year battery", "Tool-free install"},
		Rating:      4.4,
		Reviews: []models.Review{
			{ID: 3, UserName: "L. Fontaine", Rating: 4, Comment: "Readings match my lab samples closely.", Date: "2025-03-22"},
		},
		Specifications: map[string]string{
			"Depth":    "30 cm",
			"Accuracy": "±2% VWC",
			"Battery":  "2x AA lithium",
		},
	},
	{
		ID:          3,
		Name:        "SoilProbe Pro",
		Description: "Multi-depth soil profile probe with salinity measurement.",
		Image:       "/images/products/soilprobe-pro.jpg",
		Price:       149.99,
		Category:    "sensors",
		Features:    []string{"4 depth levels", "Salinity", "Moisture + temp", "5 year battery"},
		Rating:      4.8,
		Reviews: []models.Review{
			{ID: 4, UserName: "A. Virtanen", Rating: 5, Comment: "The salinity channel paid for itself in one season.", Date: "2025-06-01"},
		},
		Specifications: map[string]string{
			"Depths":   "10/20/40/60 cm",
			"Accuracy": "±1.5% VWC",
			"Battery":  "replaceable D cell",
		},
	},
	{
		ID:          4,
		Name:        "CanopyCam",
		Description: "Time-lapse crop canopy camera with on-device growth analysis.",
		Image:       "/images/products/canopycam.jpg",
		Price:       329.00,
		Category:    "cameras",
		Features:    []string{"12MP sensor", "NDVI estimates", "Weatherproof", "Solar powered"},
		Rating:      4.2,
		Reviews: []models.Review{
			{ID: 5, UserName: "P. Singh", Rating: 4, Comment: "Growth curves are surprisingly useful.", Date: "2025-02-17"},
		},
		Specifications: map[string]string{
			"Resolution": "4000x3000",
			"Interval":   "15 min minimum",
			"Storage":    "90 days on device",
		},
	},
	{
		ID:          5,
		Name:        "ValveLink Controller",
		Description: "Smart irrigation valve controller driven by live soil data.",
		Image:       "/images/products/valvelink.jpg",
		Price:       189.50,
		Category:    "irrigation",
		Features:    []string{"4 zones", "Latching solenoids", "Schedule + sensor triggers"},
		Rating:      4.6,
		Reviews: []models.Review{
			{ID: 6, UserName: "R. Moreau", Rating: 5, Comment: "Cut our water use by a third.", Date: "2025-05-28"},
		},
		Specifications: map[string]string{
			"Zones":    "4 (expandable to 12)",
			"Valves":   "9-12V latching",
			"Pressure": "up to 10 bar",
		},
	},
	{
		ID:          6,
		Name:        "WeatherPoint Station",
		Description: "Compact on-farm weather station: rain, wind, radiation, humidity.",
		Image:       "/images/products/weatherpoint.jpg",
		Price:       399.00,
		Category:    "sensors",
		Features:    []string{"Rain gauge", "Anemometer", "Pyranometer", "ETo calculation"},
		Rating:      4.5,
		Reviews:     []models.Review{},
		Specifications: map[string]string{
			"Wind":      "0-60 m/s",
			"Rain":      "0.2 mm resolution",
			"Radiation": "0-1800 W/m2",
		},
	},
	{
		ID:          7,
		Name:        "SmartAero Cloud Annual",
		Description: "One year of dashboards, alerts, and agronomic analytics for your fleet.",
		Image:       "/images/products/cloud-annual.jpg",
		Price:       120.00,
		Features:    []string{"Unlimited dashboards", "SMS + email alerts", "API access"},
		Rating:      4.1,
		Reviews:     []models.Review{},
		Specifications: map[string]string{
			"Term":    "12 months",
			"Devices": "unlimited",
		},
	},
	{
		ID:          8,
		Name:        "Starter Field Kit",
		Description: "Field hub, four SoilProbe Minis, and a ValveLink in one box.",
		Image:       "/images/products/starter-kit.jpg",
		Price:       599.00,
		Category:    "kits",
		Features:    []string{"Hub + 4 probes + valve controller", "Pre-paired", "1 year cloud included"},
		Rating:      4.9,
		Reviews: []models.Review{
			{ID: 7, UserName: "T. Nakamura", Rating: 5, Comment: "Everything just worked out of the box.", Date: "2025-07-09"},
		},
		Specifications: map[string]string{
			"Coverage": "up to 5 ha",
			"Contents": "1 hub, 4 probes, 1 controller",
		},
	},
}
