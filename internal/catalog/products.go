package catalog

// demoProducts is the built-in storefront catalog.
var demoProducts = []Product{
	{
		ID:          "1",
		Name:        "iPhone 15 Pro",
		Description: "Latest from Apple with A17 Pro chip and new camera system",
		Price:       25_900_000,
		Image:       "https://images.unsplash.com/photo-1592750475338-74b7b21085ab?w=500&h=500&fit=crop",
		Category:    "Mobile Phones",
		Stock:       15,
		Rating:      4.8,
		Reviews:     342,
	},
	{
		ID:          "2",
		Name:        "MacBook Pro 14\"",
		Description: "Professional laptop with M3 Pro chip for creative professionals",
		Price:       43_500_000,
		Image:       "https://images.unsplash.com/photo-1541807084-5c52b6b3adef?w=500&h=500&fit=crop",
		Category:    "Computers",
		Stock:       8,
		Rating:      4.9,
		Reviews:     156,
	},
	{
		ID:          "3",
		Name:        "iPad Air",
		Description: "Powerful tablet for creative work and entertainment",
		Price:       13_200_000,
		Image:       "https://images.unsplash.com/photo-1544244015-0df4b3ffc6b0?w=500&h=500&fit=crop",
		Category:    "Tablets",
		Stock:       12,
		Rating:      4.7,
		Reviews:     289,
	},
	{
		ID:          "4",
		Name:        "AirPods Pro 2",
		Description: "Wireless earbuds with advanced noise cancellation technology",
		Price:       5_400_000,
		Image:       "https://images.unsplash.com/photo-1572569511254-d8f925fe2cbb?w=500&h=500&fit=crop",
		Category:    "Headphones",
		Stock:       25,
		Rating:      4.6,
		Reviews:     478,
	},
	{
		ID:          "5",
		Name:        "Apple Watch Series 9",
		Description: "Smart watch that helps take care of your health",
		Price:       8_700_000,
		Image:       "https://images.unsplash.com/photo-1434494878577-86c23bcb06b9?w=500&h=500&fit=crop",
		Category:    "Watches",
		Stock:       18,
		Rating:      4.5,
		Reviews:     367,
	},
	{
		ID:          "6",
		Name:        "Samsung Galaxy S24",
		Description: "Flagship smartphone with cutting-edge AI technology",
		Price:       19_800_000,
		Image:       "https://images.unsplash.com/photo-1610945265064-0e34e5519bbf?w=500&h=500&fit=crop",
		Category:    "Mobile Phones",
		Stock:       20,
		Rating:      4.4,
		Reviews:     234,
	},
	{
		ID:          "7",
		Name:        "Sony WH-1000XM5",
		Description: "Premium wireless headphones with industry-leading noise cancellation",
		Price:       7_600_000,
		Image:       "https://images.unsplash.com/photo-1546435770-a3e426bf472b?w=500&h=500&fit=crop",
		Category:    "Headphones",
		Stock:       14,
		Rating:      4.7,
		Reviews:     198,
	},
	{
		ID:          "8",
		Name:        "Nintendo Switch OLED",
		Description: "Portable gaming console with vibrant OLED display",
		Price:       7_100_000,
		Image:       "https://images.unsplash.com/photo-1606144042614-b2417e99c4e3?w=500&h=500&fit=crop",
		Category:    "Gaming",
		Stock:       22,
		Rating:      4.6,
		Reviews:     445,
	},
}
