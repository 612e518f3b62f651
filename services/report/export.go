package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	reportTypes "marketplace-booking/types/report"
	"marketplace-booking/utils"
)

// Filename builds an export filename stamped with the current date, for
// example fees_2026-08-29.csv.
func Filename(prefix, ext string) string {
	return fmt.Sprintf("%s_%s.%s", prefix, time.Now().Format("2006-01-02"), ext)
}

// FeesCSV renders the fee report as CSV. Cells pass through CSV escaping so
// exported period labels can never break the row structure.
func FeesCSV(rows []reportTypes.FeeRow) string {
	var sb strings.Builder
	sb.WriteString("period,bookings,gross_volume,platform_fee,tax,net_to_provider,fee_rate_percent,contribution_percent\n")
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%d,%d,%d,%d,%d,%.2f,%.2f\n",
			utils.CSVEscape(r.Period), r.Bookings, r.GrossVolume, r.PlatformFee,
			r.Tax, r.NetToProvider, r.FeeRatePercent, r.ContributionPercent))
	}
	return sb.String()
}

// KYCCSV renders the KYC overview as CSV.
func KYCCSV(rows []reportTypes.KYCRow) string {
	var sb strings.Builder
	sb.WriteString("kyc_status,providers,suspended,charges_enabled,avg_trust_score,share_percent\n")
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%d,%d,%d,%.2f,%.2f\n",
			utils.CSVEscape(r.KYCStatus), r.Providers, r.Suspended,
			r.ChargesEnabled, r.AvgTrustScore, r.SharePercent))
	}
	return sb.String()
}

var feesHTMLTemplate = template.Must(template.New("fees").Funcs(template.FuncMap{
	"amount": func(v int64) string { return utils.FormatAmountNZD(v) },
	"pct":    func(v float64) string { return fmt.Sprintf("%.2f%%", v) },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Fee Report</title>
<style>
body { font-family: Arial, sans-serif; margin: 2rem; color: #1f2933; }
h1 { font-size: 1.4rem; }
table { border-collapse: collapse; width: 100%; margin-top: 1rem; }
th, td { border: 1px solid #cbd2d9; padding: 6px 10px; text-align: right; }
th { background: #f5f7fa; }
td:first-child, th:first-child { text-align: left; }
tfoot td { font-weight: bold; background: #f5f7fa; }
</style>
</head>
<body>
<h1>Fee Report</h1>
<p>Generated {{.GeneratedAt}}</p>
<table>
<thead>
<tr><th>Period</th><th>Bookings</th><th>Gross</th><th>Platform Fee</th><th>Tax</th><th>Net To Provider</th><th>Fee Rate</th><th>Contribution</th></tr>
</thead>
<tbody>
{{range .Rows}}<tr><td>{{.Period}}</td><td>{{.Bookings}}</td><td>{{amount .GrossVolume}}</td><td>{{amount .PlatformFee}}</td><td>{{amount .Tax}}</td><td>{{amount .NetToProvider}}</td><td>{{pct .FeeRatePercent}}</td><td>{{pct .ContributionPercent}}</td></tr>
{{end}}</tbody>
<tfoot>
<tr><td>Total</td><td>{{.TotalBookings}}</td><td>{{amount .TotalGross}}</td><td>{{amount .TotalFee}}</td><td>{{amount .TotalTax}}</td><td>{{amount .TotalNet}}</td><td></td><td></td></tr>
</tfoot>
</table>
</body>
</html>`))

// FeesHTML renders the fee report as a standalone HTML document.
func FeesHTML(rows []reportTypes.FeeRow) (string, error) {
	data := struct {
		GeneratedAt   string
		Rows          []reportTypes.FeeRow
		TotalBookings int64
		TotalGross    int64
		TotalFee      int64
		TotalTax      int64
		TotalNet      int64
	}{
		GeneratedAt: time.Now().Format("02 Jan 2006 15:04"),
		Rows:        rows,
	}
	for _, r := range rows {
		data.TotalBookings += r.Bookings
		data.TotalGross += r.GrossVolume
		data.TotalFee += r.PlatformFee
		data.TotalTax += r.Tax
		data.TotalNet += r.NetToProvider
	}

	var buf bytes.Buffer
	if err := feesHTMLTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
