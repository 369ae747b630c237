package notification

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"go-gin-cinema-booking/config"
	"go-gin-cinema-booking/internal/model"
	"go-gin-cinema-booking/internal/repository"
	"go-gin-cinema-booking/pkg/logger"
	"html/template"
	"io"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	qrSize          = 256
	startTimeLayout = "Mon 02 Jan 2006, 15:04"
)

// Sender *gomail.Dialer 即符合
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

func NewSMTPSender(cfg *config.MailConfig) Sender {
	return gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
}

type BookingNotifier interface {
	// 寄出含 QR code 的確認信
	NotifyBookingConfirmed(ctx context.Context, event *model.BookingConfirmedEvent) error
}

type EmailNotifierImpl struct {
	bookingRepository repository.BookingRepository
	sender            Sender
	from              string
	tmpl              *template.Template
}

func NewEmailNotifier(bookingRepository repository.BookingRepository, sender Sender, from string) (BookingNotifier, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/booking_confirmed.html")
	if err != nil {
		return nil, fmt.Errorf("parse email template: %w", err)
	}
	return &EmailNotifierImpl{
		bookingRepository: bookingRepository,
		sender:            sender,
		from:              from,
		tmpl:              tmpl,
	}, nil
}

type seatView struct {
	Row          string
	Number       int
	BarcodeValue string
	QRSrc        template.URL
}

type emailView struct {
	BookingID    string
	CustomerName string
	MovieTitle   string
	ScreenName   string
	StartTime    string
	Seats        []seatView
}

func (n *EmailNotifierImpl) NotifyBookingConfirmed(ctx context.Context, event *model.BookingConfirmedEvent) error {
	log := logger.WithComponent("notifier").With(zap.String("booking_id", event.BookingID.String()))

	summary, err := n.bookingRepository.FindSummary(ctx, event.BookingID)
	if err != nil {
		return fmt.Errorf("load booking summary: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", n.from)
	msg.SetHeader("To", summary.CustomerEmail)
	msg.SetHeader("Subject", fmt.Sprintf("Your tickets for %s", summary.MovieTitle))

	view := emailView{
		BookingID:    summary.BookingID.String(),
		CustomerName: summary.CustomerName,
		MovieTitle:   summary.MovieTitle,
		ScreenName:   summary.ScreenName,
		StartTime:    summary.StartTime.Format(startTimeLayout),
	}

	// 每張票一張 inline PNG，img 以 cid 參照
	for _, seat := range summary.Seats {
		png, err := qrcode.Encode(seat.BarcodeValue, qrcode.Medium, qrSize)
		if err != nil {
			return fmt.Errorf("encode qr for %s: %w", seat.BarcodeValue, err)
		}
		name := seat.BarcodeValue + ".png"
		msg.Embed(name, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(png)
			return err
		}))
		view.Seats = append(view.Seats, seatView{
			Row:          seat.Row,
			Number:       seat.Number,
			BarcodeValue: seat.BarcodeValue,
			QRSrc:        template.URL("cid:" + name),
		})
	}

	var body bytes.Buffer
	if err := n.tmpl.Execute(&body, view); err != nil {
		return fmt.Errorf("render email: %w", err)
	}
	msg.SetBody("text/html", body.String())

	if err := n.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	log.Info("booking confirmation sent", zap.Int("tickets", len(summary.Seats)))
	return nil
}
