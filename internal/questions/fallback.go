package questions

// fallbackCategories is the minimal built-in tree used when the catalogue
// file is missing or corrupt. One real question keeps the service usable.
func fallbackCategories() []Category {
	return []Category{
		{
			Category: "Interpersonal Relations",
			Subcategories: []Subcategory{
				{
					Subcategory: "Visiting and hospitality",
					Topics: []Topic{
						{
							Topic: "Etiquette in the reception of visitors",
							Questions: []string{
								"In your region, what are the typical ways people prepare their homes for the arrival of guests?",
							},
						},
					},
				},
			},
		},
	}
}
