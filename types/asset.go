package types

import (
	"fmt"
	"strings"
	"time"
)

type AssetType string

const (
	AssetTypeStock  AssetType = "STOCK"
	AssetTypeCrypto AssetType = "CRYPTO"
	AssetTypeEtf    AssetType = "ETF"
)

func ParseAssetType(s string) (AssetType, error) {
	switch t := AssetType(strings.ToUpper(s)); t {
	case AssetTypeStock, AssetTypeCrypto, AssetTypeEtf:
		return t, nil
	}
	return "", fmt.Errorf("unknown asset type %q", s)
}

// Market is the directory bars of this asset class are stored under.
// Stocks and ETFs share the US equity calendar.
func (t AssetType) Market() string {
	if t == AssetTypeCrypto {
		return "crypto"
	}
	return "us"
}

// Asset is a row of the assets table.
type Asset struct {
	Id         int       `json:"id"`
	Ticker     string    `json:"ticker"`
	Name       string    `json:"name"`
	Type       AssetType `json:"type"`
	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"`
}
