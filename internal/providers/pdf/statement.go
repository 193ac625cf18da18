package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type StatementData struct {
	PayoutID    string
	PartnerName string
	Status      string
	Currency    string
	PeriodStart string
	PeriodEnd   string
	IssuedAt    string

	Total string

	Items []StatementItem
}

type StatementItem struct {
	CommissionID string
	Type         string
	Date         string
	Amount       string
	Earnings     string
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateStatement(ctx context.Context, data StatementData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Payout Statement", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(24,
		col.New(6).Add(
			text.New("Payout: "+data.PayoutID, props.Text{Top: 0}),
			text.New("Partner: "+data.PartnerName, props.Text{Top: 4}),
			text.New("Status: "+data.Status, props.Text{Top: 8}),
		),
		col.New(6).Add(
			text.New("Issued: "+data.IssuedAt, props.Text{Top: 0}),
			text.New("Period: "+data.PeriodStart+" to "+data.PeriodEnd, props.Text{Top: 4}),
		),
	)

	m.AddRow(12,
		text.NewCol(12, "Total: "+data.Total+" "+data.Currency, props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   2,
		}),
	)

	m.AddRow(10,
		text.NewCol(5, "Commission", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Type", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Date", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Earnings", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range data.Items {
		m.AddRow(8,
			text.NewCol(5, item.CommissionID, props.Text{Size: 9}),
			text.NewCol(2, item.Type, props.Text{Size: 9}),
			text.NewCol(2, item.Date, props.Text{Size: 9}),
			text.NewCol(3, item.Earnings, props.Text{Size: 9, Align: align.Right}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}
