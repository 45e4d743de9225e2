package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/holiman/uint256"

	"github.com/pflow-xyz/go-rental-market/evm"
	"github.com/pflow-xyz/go-rental-market/offer"
)

// offerDoc is the JSON form of a rental offer accepted on the command line.
// Addresses are hex, large numbers are decimal strings, roles are role names
// hashed with keccak-256.
type offerDoc struct {
	Lender             string   `json:"lender"`
	Borrower           string   `json:"borrower"`
	TokenAddress       string   `json:"tokenAddress"`
	TokenID            string   `json:"tokenId"`
	TokenAmount        string   `json:"tokenAmount"`
	CommitmentID       uint64   `json:"commitmentId"`
	FeeTokenAddress    string   `json:"feeTokenAddress"`
	FeeAmountPerSecond string   `json:"feeAmountPerSecond"`
	Nonce              string   `json:"nonce"`
	Deadline           uint64   `json:"deadline"`
	MinDuration        uint64   `json:"minDuration"`
	Roles              []string `json:"roles"`
	RolesData          []string `json:"rolesData"` // hex, may be empty
}

func hashCmd(args []string) error {
	fs := flag.NewFlagSet("hash", flag.ExitOnError)
	duration := fs.Uint64("duration", 0, "Also print the total fee for this rental duration (seconds)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: rentalmarket hash <offer.json> [options]

Validate an offer document's shape and print its structural hash.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Example offer.json:
  {
    "lender": "0x0000000000000000000000000000000000000002",
    "borrower": "0x0000000000000000000000000000000000000000",
    "tokenAddress": "0x00000000000000000000000000000000000000aa",
    "tokenId": "42",
    "tokenAmount": "1",
    "feeTokenAddress": "0x00000000000000000000000000000000000000bb",
    "feeAmountPerSecond": "100",
    "nonce": "1",
    "deadline": 1700604800,
    "minDuration": 3600,
    "roles": ["USER_ROLE"]
  }
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("offer file required")
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("read offer: %w", err)
	}

	var doc offerDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse offer: %w", err)
	}

	o, err := doc.toOffer()
	if err != nil {
		return err
	}
	if err := o.ValidateShape(); err != nil {
		return fmt.Errorf("invalid offer: %w", err)
	}

	fmt.Printf("Hash:    %s\n", o.Hash().Hex())
	if o.IsOpen() {
		fmt.Println("Kind:    open (any borrower)")
	} else {
		fmt.Printf("Kind:    private (borrower %s)\n", o.Borrower.Hex())
	}
	if *duration > 0 {
		fee, err := o.TotalFee(*duration)
		if err != nil {
			return fmt.Errorf("total fee: %w", err)
		}
		fmt.Printf("Fee(%ds): %s\n", *duration, fee.Dec())
	}
	return nil
}

func (d *offerDoc) toOffer() (*offer.RentalOffer, error) {
	o := &offer.RentalOffer{
		CommitmentID: d.CommitmentID,
		Deadline:     d.Deadline,
		MinDuration:  d.MinDuration,
	}

	var err error
	if o.Lender, err = evm.HexToAddress(d.Lender); err != nil {
		return nil, fmt.Errorf("lender: %w", err)
	}
	if d.Borrower != "" {
		if o.Borrower, err = evm.HexToAddress(d.Borrower); err != nil {
			return nil, fmt.Errorf("borrower: %w", err)
		}
	}
	if o.TokenAddress, err = evm.HexToAddress(d.TokenAddress); err != nil {
		return nil, fmt.Errorf("tokenAddress: %w", err)
	}
	if o.FeeTokenAddress, err = evm.HexToAddress(d.FeeTokenAddress); err != nil {
		return nil, fmt.Errorf("feeTokenAddress: %w", err)
	}
	if o.TokenID, err = decimal(d.TokenID, "tokenId"); err != nil {
		return nil, err
	}
	if o.TokenAmount, err = decimal(d.TokenAmount, "tokenAmount"); err != nil {
		return nil, err
	}
	if o.FeeAmountPerSecond, err = decimal(d.FeeAmountPerSecond, "feeAmountPerSecond"); err != nil {
		return nil, err
	}
	if o.Nonce, err = decimal(d.Nonce, "nonce"); err != nil {
		return nil, err
	}

	o.Roles = make([]evm.Role, len(d.Roles))
	o.RolesData = make([][]byte, len(d.Roles))
	for i, name := range d.Roles {
		o.Roles[i] = evm.RoleID(name)
		if i < len(d.RolesData) && d.RolesData[i] != "" {
			raw, err := hex.DecodeString(strings.TrimPrefix(d.RolesData[i], "0x"))
			if err != nil {
				return nil, fmt.Errorf("rolesData[%d]: %w", i, err)
			}
			o.RolesData[i] = raw
		}
	}
	return o, nil
}

func decimal(s, field string) (*uint256.Int, error) {
	if s == "" {
		return uint256.NewInt(0), nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return v, nil
}
