package core

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"12.344", 1234, true},
		{" 2.50 ", 250, true},
		{"4800.0", 480000, true},
		{"0", 0, true},
		{"-1", -100, true},
		{"1e3", 100000, true},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"99999999999999999999999", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else {
			if !errors.Is(err, ErrNotANumber) {
				t.Fatalf("%q expected ErrNotANumber, got %v", tc.in, err)
			}
		}
	}
}

func TestMoneyRendering(t *testing.T) {
	cases := []struct {
		m      Money
		fixed  string
		record string
	}{
		{NewMoney(5000, 0), "5000.00", "5000.0"},
		{NewMoney(200, 0), "200.00", "200.0"},
		{NewMoney(200, 50), "200.50", "200.5"},
		{NewMoney(0, 1), "0.01", "0.01"},
		{NewMoney(12, 34), "12.34", "12.34"},
		{Money{}, "0.00", "0.0"},
	}
	for _, tc := range cases {
		if got := tc.m.Fixed(); got != tc.fixed {
			t.Errorf("Fixed(%d) = %q, want %q", tc.m.Cents, got, tc.fixed)
		}
		if got := tc.m.Record(); got != tc.record {
			t.Errorf("Record(%d) = %q, want %q", tc.m.Cents, got, tc.record)
		}
	}
	if got := NewMoney(4800, 0).String(); got != "Rs. 4800.00" {
		t.Errorf("String() = %q", got)
	}
}

func TestRecordParsesBack(t *testing.T) {
	for _, cents := range []int64{0, 1, 10, 99, 100, 480000, 123456789} {
		m := Money{Cents: cents}
		back, err := ParseAmount(m.Record())
		if err != nil || back != m {
			t.Fatalf("record %q parsed to %d (err=%v), want %d", m.Record(), back.Cents, err, cents)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero, got %v", err)
	}
	if err := (Money{Cents: -5}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative, got %v", err)
	}
}
