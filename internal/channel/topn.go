package channel

import "sort"

// ProductROI is the aggregated ROI of one product.
type ProductROI struct {
	ProductID   string
	ProductName string
	GMV         float64
	Cost        float64
	ROI         Ratio
}

// TopROIProducts aggregates GMV and cost per product and returns the n
// best ROIs, descending. Products that never incurred cost have no ROI
// and are excluded from the ranking.
func TopROIProducts(days []Day, n int) []ProductROI {
	byProduct := make(map[string]*ProductROI)
	for _, d := range days {
		p := byProduct[d.ProductID]
		if p == nil {
			p = &ProductROI{ProductID: d.ProductID, ProductName: d.ProductName}
			byProduct[d.ProductID] = p
		}
		p.GMV += d.GMV
		p.Cost += d.Cost
	}

	products := make([]ProductROI, 0, len(byProduct))
	for _, p := range byProduct {
		p.ROI = ratio(p.GMV, p.Cost)
		if p.ROI.Valid {
			products = append(products, *p)
		}
	}

	sort.Slice(products, func(i, j int) bool {
		if products[i].ROI.Value != products[j].ROI.Value {
			return products[i].ROI.Value > products[j].ROI.Value
		}
		return products[i].ProductID < products[j].ProductID
	})

	if n > 0 && len(products) > n {
		products = products[:n]
	}
	return products
}
