package model

import (
	"math"
	"testing"
	"time"
)

func validBattery() Battery {
	return Battery{
		Name:           "bess",
		CapacityKWh:    100,
		MaxChargeKW:    50,
		MaxDischargeKW: 50,
		Efficiency:     0.90,
		SoCMin:         0.1,
		SoCMax:         0.9,
		SoC:            0.5,
	}
}

func TestBatteryChargeFromTwenty(t *testing.T) {
	b := validBattery()
	b.SoCMin, b.SoCMax = 0, 1
	b.SoC = 0.20
	actual := b.ApplyPower(-50, time.Hour)
	if actual != -50 {
		t.Fatalf("expected -50 applied got %v", actual)
	}
	// 50 kW * 0.90 for one hour stores 45 kWh on a 100 kWh pack.
	if math.Abs(b.SoC-0.65) > 1e-9 {
		t.Fatalf("expected soc 0.65 got %v", b.SoC)
	}
}

func TestBatteryRoundTripLoss(t *testing.T) {
	b := validBattery()
	b.ApplyPower(-20, time.Hour)
	b.ApplyPower(20, time.Hour)
	eff := b.Efficiency
	want := 0.5 - 20*1*(1/eff-eff)/b.CapacityKWh
	if math.Abs(b.SoC-want) > 1e-9 {
		t.Fatalf("expected soc %v after full cycle got %v", want, b.SoC)
	}
	if b.SoC >= 0.5 {
		t.Fatalf("round trip must lose energy, soc %v", b.SoC)
	}
}

func TestBatteryChargeClampedAtUpperBound(t *testing.T) {
	b := validBattery()
	b.SoC = 0.88
	actual := b.ApplyPower(-50, time.Hour)
	if math.Abs(actual) >= 50 {
		t.Fatalf("expected actual power below request got %v", actual)
	}
	if b.SoC != b.SoCMax {
		t.Fatalf("expected soc pinned at %v got %v", b.SoCMax, b.SoC)
	}
}

func TestBatteryDischargeClampedAtLowerBound(t *testing.T) {
	b := validBattery()
	b.SoC = 0.12
	actual := b.ApplyPower(50, time.Hour)
	if actual >= 50 {
		t.Fatalf("expected actual power below request got %v", actual)
	}
	if math.Abs(b.SoC-b.SoCMin) > 1e-9 {
		t.Fatalf("expected soc pinned at %v got %v", b.SoCMin, b.SoC)
	}
}

func TestBatteryRateLimits(t *testing.T) {
	b := validBattery()
	if got := b.ApplyPower(120, time.Minute); got > b.MaxDischargeKW {
		t.Fatalf("discharge above rate limit: %v", got)
	}
	b = validBattery()
	if got := b.ApplyPower(-120, time.Minute); -got > b.MaxChargeKW {
		t.Fatalf("charge above rate limit: %v", got)
	}
}

func TestBatteryValidate(t *testing.T) {
	b := validBattery()
	if err := b.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b.SoCMin = 0.95
	if err := b.Validate(); err == nil {
		t.Fatalf("expected error for inverted soc bounds")
	}
	b = validBattery()
	b.Efficiency = 1.2
	if err := b.Validate(); err == nil {
		t.Fatalf("expected error for efficiency above one")
	}
}

func TestBatteryHeadroom(t *testing.T) {
	b := validBattery()
	b.SoC = 0.9
	if hr := b.HeadroomKW(time.Hour); hr != 0 {
		t.Fatalf("full battery should have no headroom, got %v", hr)
	}
	b.SoC = 0.5
	hr := b.HeadroomKW(time.Hour)
	if hr <= 0 || hr > b.MaxChargeKW {
		t.Fatalf("headroom outside (0,%v]: %v", b.MaxChargeKW, hr)
	}
}
