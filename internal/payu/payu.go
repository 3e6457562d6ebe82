// Package payu builds signed PayU hosted checkout requests and verifies the
// signed callbacks PayU posts back.
package payu

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"

	"github.com/Skotchmaster/bookstore_checkout/internal/pricing"
)

const (
	TestURL = "https://test.payu.in/_payment"
	ProdURL = "https://secure.payu.in/_payment"

	StatusSuccess = "success"
)

var ErrHashMismatch = errors.New("payu: hash mismatch")

type Gateway struct {
	Key      string
	Salt     string
	TestMode bool
}

func (g Gateway) PaymentURL() string {
	if g.TestMode {
		return TestURL
	}
	return ProdURL
}

// UDF carries the five pass-through fields PayU echoes back on the callback.
type UDF [5]string

type PaymentRequest struct {
	TxnID       string
	Amount      pricing.Money
	ProductInfo string
	FirstName   string
	Email       string
	Phone       string
	SuccessURL  string
	FailureURL  string
	UDF         UDF
}

// RequestHash signs
// key|txnid|amount|productinfo|firstname|email|udf1|udf2|udf3|udf4|udf5||||||SALT.
func (g Gateway) RequestHash(p PaymentRequest) string {
	fields := []string{
		g.Key, p.TxnID, p.Amount.String(), p.ProductInfo, p.FirstName, p.Email,
		p.UDF[0], p.UDF[1], p.UDF[2], p.UDF[3], p.UDF[4],
		"", "", "", "", "",
		g.Salt,
	}
	return digest(fields)
}

// Params returns the form fields the browser posts to PayU, hash included.
func (g Gateway) Params(p PaymentRequest) map[string]string {
	return map[string]string{
		"key":         g.Key,
		"txnid":       p.TxnID,
		"amount":      p.Amount.String(),
		"productinfo": p.ProductInfo,
		"firstname":   p.FirstName,
		"email":       p.Email,
		"phone":       p.Phone,
		"surl":        p.SuccessURL,
		"furl":        p.FailureURL,
		"udf1":        p.UDF[0],
		"udf2":        p.UDF[1],
		"udf3":        p.UDF[2],
		"udf4":        p.UDF[3],
		"udf5":        p.UDF[4],
		"hash":        g.RequestHash(p),
	}
}

// Response is the form PayU posts to the success or failure URL. Nothing in
// it is trustworthy until Verify returns nil.
type Response struct {
	Status            string
	TxnID             string
	Amount            string
	ProductInfo       string
	FirstName         string
	Email             string
	Phone             string
	MihpayID          string
	ErrorMessage      string
	AdditionalCharges string
	Hash              string
	UDF               UDF
}

func ParseResponse(form url.Values) Response {
	return Response{
		Status:            form.Get("status"),
		TxnID:             form.Get("txnid"),
		Amount:            form.Get("amount"),
		ProductInfo:       form.Get("productinfo"),
		FirstName:         form.Get("firstname"),
		Email:             form.Get("email"),
		Phone:             form.Get("phone"),
		MihpayID:          form.Get("mihpayid"),
		ErrorMessage:      form.Get("error_Message"),
		AdditionalCharges: form.Get("additionalCharges"),
		Hash:              form.Get("hash"),
		UDF:               UDF{form.Get("udf1"), form.Get("udf2"), form.Get("udf3"), form.Get("udf4"), form.Get("udf5")},
	}
}

// ResponseHash signs the callback fields in PayU's reverse order:
// SALT|status||||||udf5|udf4|udf3|udf2|udf1|email|firstname|productinfo|amount|txnid|key,
// prefixed with additionalCharges| when PayU reports extra charges.
func (g Gateway) ResponseHash(r Response) string {
	fields := []string{
		g.Salt, r.Status,
		"", "", "", "", "",
		r.UDF[4], r.UDF[3], r.UDF[2], r.UDF[1], r.UDF[0],
		r.Email, r.FirstName, r.ProductInfo, r.Amount, r.TxnID,
		g.Key,
	}
	if r.AdditionalCharges != "" {
		fields = append([]string{r.AdditionalCharges}, fields...)
	}
	return digest(fields)
}

// Verify checks the callback hash in constant time.
func (g Gateway) Verify(r Response) error {
	want := g.ResponseHash(r)
	got := strings.ToLower(strings.TrimSpace(r.Hash))
	if subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		return ErrHashMismatch
	}
	return nil
}

func (r Response) Succeeded() bool { return r.Status == StatusSuccess }

func digest(fields []string) string {
	sum := sha512.Sum512([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(sum[:])
}
