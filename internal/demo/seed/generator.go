package seed

import (
	"fmt"
	"math"
	"math/rand"
)

// Row is one fact of the P&L table. Column names match the ones the SQL
// prompt describes.
type Row struct {
	Importe   float64 `parquet:"IMPORTE"`
	Anio      int64   `parquet:"ANIO"`
	MesID     int64   `parquet:"MES_ID"`
	Quarter   string  `parquet:"DICCIONARIO_Q"`
	Concept   string  `parquet:"PYL0"`
	Country   string  `parquet:"DICCIONARIO_COUNTRY"`
	Currency  string  `parquet:"MONEDA"`
	Scenario  string  `parquet:"ESCENARIO"`
	SubBU     string  `parquet:"DICCIONARIO_SUBBU"`
	MacroBU   string  `parquet:"DICCIONARIO_MACRO_BU"`
	LocalEBIT float64 `parquet:"DICCIONARIO_LOCAL_EBIT"`
}

var (
	Countries  = []string{"ARGENTINA", "BRASIL", "CHILE", "COLOMBIA", "ECUADOR", "PANAMA", "PARAGUAY", "PERU", "URUGUAY", "VENEZUELA"}
	Concepts   = []string{"NET REVENUES", "COGS", "EXPENSES", "TAX"}
	Currencies = []string{"USD", "LOCAL", "DEFLATED", "USD CC"}
	Scenarios  = []string{"REALIZADO", "PLAN"}
	SubBUs     = []string{"RETAIL", "ONLINE PAYMENTS", "CREDITS", "POINT"}
)

var macroBU = map[string]string{
	"RETAIL":          "E-COMMERCE",
	"ONLINE PAYMENTS": "FINTECH SERVICES",
	"CREDITS":         "FINTECH SERVICES",
	"POINT":           "FINTECH SERVICES",
}

// Share of revenue booked under each cost concept.
var conceptShare = map[string]float64{
	"NET REVENUES": 1,
	"COGS":         0.45,
	"EXPENSES":     0.3,
	"TAX":          0.08,
}

type Generator struct {
	rnd       *rand.Rand
	startYear int
	years     int
	// fx is a fixed local-currency rate per country for the whole run.
	fx map[string]float64
}

func NewGenerator(seed int64, startYear, years int) *Generator {
	rnd := rand.New(rand.NewSource(seed))
	fx := make(map[string]float64, len(Countries))
	for _, country := range Countries {
		fx[country] = round2(1 + rnd.Float64()*999)
	}
	return &Generator{rnd: rnd, startYear: startYear, years: years, fx: fx}
}

// RowCount is the number of rows Rows returns.
func (g *Generator) RowCount() int {
	return g.years * 12 * len(Countries) * len(SubBUs) * len(Scenarios) * len(Concepts) * len(Currencies)
}

// Rows returns every month × country × business unit × scenario × concept
// × currency combination in a stable order.
func (g *Generator) Rows() []Row {
	rows := make([]Row, 0, g.RowCount())
	for year := g.startYear; year < g.startYear+g.years; year++ {
		for month := 1; month <= 12; month++ {
			for _, country := range Countries {
				for _, subBU := range SubBUs {
					revenue := 50_000 + g.rnd.Float64()*450_000
					plan := revenue * (0.9 + g.rnd.Float64()*0.2)
					for _, scenario := range Scenarios {
						base := revenue
						if scenario == "PLAN" {
							base = plan
						}
						rows = g.appendConcepts(rows, year, month, country, subBU, scenario, base)
					}
				}
			}
		}
	}
	return rows
}

func (g *Generator) appendConcepts(rows []Row, year, month int, country, subBU, scenario string, revenueUSD float64) []Row {
	amounts := make(map[string]float64, len(Concepts))
	for _, concept := range Concepts {
		share := conceptShare[concept]
		if concept != "NET REVENUES" {
			share *= 0.85 + g.rnd.Float64()*0.3
		}
		amounts[concept] = revenueUSD * share
	}
	ebitUSD := amounts["NET REVENUES"] - amounts["COGS"] - amounts["EXPENSES"]

	for _, concept := range Concepts {
		for _, currency := range Currencies {
			rate := g.rate(country, currency)
			rows = append(rows, Row{
				Importe:   round2(amounts[concept] * rate),
				Anio:      int64(year),
				MesID:     int64(year*100 + month),
				Quarter:   fmt.Sprintf("Q%d", (month-1)/3+1),
				Concept:   concept,
				Country:   country,
				Currency:  currency,
				Scenario:  scenario,
				SubBU:     subBU,
				MacroBU:   macroBU[subBU],
				LocalEBIT: round2(ebitUSD * rate * 0.97),
			})
		}
	}
	return rows
}

func (g *Generator) rate(country, currency string) float64 {
	switch currency {
	case "LOCAL":
		return g.fx[country]
	case "DEFLATED":
		return g.fx[country] * 0.92
	case "USD CC":
		return 1.03
	default:
		return 1
	}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
