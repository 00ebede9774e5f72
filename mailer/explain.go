package mailer

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/textproto"
	"os"
	"strings"
	"syscall"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Problem is a class of SMTP failure we can give advice about.
type Problem int

const (
	ProblemUnknown Problem = iota
	ProblemTimeout
	ProblemRefused
	ProblemHostNotFound
	ProblemAuth
	ProblemCertificate
	ProblemReset
)

// message keys, English text is used when translation is missing
var hints = map[Problem]string{
	ProblemTimeout:      "Connection timed out - check host address and port",
	ProblemRefused:      "Connection refused - server is not reachable",
	ProblemHostNotFound: "Host not found - check server address",
	ProblemAuth:         "Authentication failed - check user name and password",
	ProblemCertificate:  "Certificate error - try without SSL/TLS",
	ProblemReset:        "Connection reset - check SSL/TLS setting",
}

var (
	supported   = []language.Tag{language.English, language.Hungarian}
	matcher     = language.NewMatcher(supported)
	diagnostics = func() catalog.Catalog {
		b := catalog.NewBuilder(catalog.Fallback(language.English))
		hu := map[Problem]string{
			ProblemTimeout:      "Kapcsolat időtúllépés - ellenőrizd a host címet és portot",
			ProblemRefused:      "Kapcsolat elutasítva - a szerver nem elérhető",
			ProblemHostNotFound: "Host nem található - ellenőrizd a szerver címet",
			ProblemAuth:         "Hitelesítési hiba - ellenőrizd a felhasználónevet és jelszót",
			ProblemCertificate:  "Tanúsítvány hiba - próbáld SSL/TLS nélkül",
			ProblemReset:        "Kapcsolat megszakadt - ellenőrizd az SSL/TLS beállítást",
		}
		for p, key := range hints {
			_ = b.SetString(language.English, key, key)
			_ = b.SetString(language.Hungarian, key, hu[p])
		}
		return b
	}()
)

// Classify determines what kind of SMTP problem err describes.
func Classify(err error) Problem {
	if err == nil {
		return ProblemUnknown
	}

	var (
		dnsErr   *net.DNSError
		protoErr *textproto.Error
		netErr   net.Error
		verErr   *tls.CertificateVerificationError
		authErr  x509.UnknownAuthorityError
		hostErr  x509.HostnameError
		invErr   x509.CertificateInvalidError
	)
	switch {
	case errors.As(err, &dnsErr) && dnsErr.IsNotFound:
		return ProblemHostNotFound
	case errors.As(err, &protoErr) && (protoErr.Code == 535 || protoErr.Code == 534 || protoErr.Code == 530):
		return ProblemAuth
	case errors.As(err, &verErr), errors.As(err, &authErr), errors.As(err, &hostErr), errors.As(err, &invErr):
		return ProblemCertificate
	case errors.Is(err, syscall.ECONNREFUSED):
		return ProblemRefused
	case errors.Is(err, syscall.ECONNRESET):
		return ProblemReset
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return ProblemTimeout
	}

	// some servers and libraries only leave text behind
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"):
		return ProblemTimeout
	case strings.Contains(msg, "connection refused"):
		return ProblemRefused
	case strings.Contains(msg, "no such host"):
		return ProblemHostNotFound
	case strings.Contains(msg, "certificate"):
		return ProblemCertificate
	case strings.Contains(msg, "auth"), strings.Contains(msg, "535"):
		return ProblemAuth
	case strings.Contains(msg, "connection reset"):
		return ProblemReset
	}
	return ProblemUnknown
}

// Explain returns advice for SMTP failure in requested language (English and
// Hungarian are available). Unknown failures are returned as is.
func Explain(err error, lang language.Tag) string {
	if err == nil {
		return ""
	}
	key, ok := hints[Classify(err)]
	if !ok {
		return err.Error()
	}
	_, i, _ := matcher.Match(lang)
	return message.NewPrinter(supported[i], message.Catalog(diagnostics)).Sprintf(key)
}
