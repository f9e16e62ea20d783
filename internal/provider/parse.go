package provider

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// ParsePoolSpecs converts "pool:base:quote" strings into PoolSpec values.
func ParsePoolSpecs(inputs []string) ([]PoolSpec, error) {
	specs := make([]PoolSpec, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		parts := strings.Split(input, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid pool spec %q: want pool:base:quote", input)
		}
		addrs := make([]common.Address, 3)
		for i, part := range parts {
			part = strings.TrimSpace(part)
			if !common.IsHexAddress(part) {
				return nil, fmt.Errorf("invalid address in pool spec %q: %s", input, part)
			}
			addrs[i] = common.HexToAddress(part)
		}
		specs = append(specs, PoolSpec{Pool: addrs[0], Base: addrs[1], Quote: addrs[2]})
	}
	return specs, nil
}

// ParseQuotePrices converts "token=price" strings into a USD price table.
func ParseQuotePrices(inputs []string) (map[common.Address]decimal.Decimal, error) {
	prices := make(map[common.Address]decimal.Decimal, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		parts := strings.SplitN(input, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid quote price %q: want token=price", input)
		}
		addr := strings.TrimSpace(parts[0])
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("invalid token address in quote price %q", input)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid price in quote price %q: %w", input, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("negative price in quote price %q", input)
		}
		prices[common.HexToAddress(addr)] = price
	}
	return prices, nil
}
