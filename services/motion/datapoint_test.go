// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package motion

import (
	"encoding/json"
	"testing"
)

func roundTrip(t *testing.T, p DataPoint) DataPoint {
	t.Helper()
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal %s: %v", p, err)
	}
	var got DataPoint
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal %s from %s: %v", p, data, err)
	}
	return got
}

func TestDataPoint_JSONRoundTripLaw(t *testing.T) {
	points := []DataPoint{
		IntPoint(0),
		IntPoint(-42),
		IntPoint(1<<53 + 1), // beyond float64 precision, must survive
		FloatPoint(0.1),
		FloatPoint(-2.5e-7),
		BoolPoint(true),
		BoolPoint(false),
		StringPoint(""),
		StringPoint("fade/out"),
		PointPoint(Point{X: -3, Y: 9}),
		SizePoint(Size{Width: 1080, Height: 2400}),
		RectPoint(Rect{Left: 1, Top: 2, Right: 3, Bottom: 4}),
		DpPoint(4.5),
		NotFoundPoint(),
		NullPoint(),
	}
	for _, p := range points {
		t.Run(p.String(), func(t *testing.T) {
			got := roundTrip(t, p)
			if !got.Equal(p) {
				t.Errorf("round trip changed value: %s -> %s", p, got)
			}
		})
	}
}

func TestDataPoint_Serialization(t *testing.T) {
	tests := []struct {
		point DataPoint
		want  string
	}{
		{IntPoint(7), `{"type":"int","value":7}`},
		{DpPoint(4.5), `{"type":"dp","value":4.5}`},
		{NotFoundPoint(), `{"type":"not_found"}`},
		{NullPoint(), `null`},
	}
	for _, tc := range tests {
		data, err := json.Marshal(tc.point)
		if err != nil {
			t.Fatalf("marshal %s: %v", tc.point, err)
		}
		if string(data) != tc.want {
			t.Errorf("marshal %s = %s, want %s", tc.point, data, tc.want)
		}
	}
}

func TestDataPoint_NotFoundReasonIsDiagnosticOnly(t *testing.T) {
	p := NotFoundPointf("node %q gone", "button")
	if p.Reason() == "" {
		t.Fatal("reason missing")
	}
	if !p.Equal(NotFoundPoint()) {
		t.Error("reason must not participate in equality")
	}
	if got := roundTrip(t, p); got.Reason() != "" {
		t.Error("reason must not serialize")
	}
}

func TestDataPoint_Equal(t *testing.T) {
	if !FloatPoint(0.5).Equal(FloatPoint(0.5)) {
		t.Error("identical floats should be equal")
	}
	// Exact float comparison: no tolerance by default.
	if FloatPoint(0.5).Equal(FloatPoint(0.5 + 1e-12)) {
		t.Error("nearby floats must not compare equal")
	}
	// Same numeric value under different types stays unequal.
	if FloatPoint(4.5).Equal(DpPoint(4.5)) {
		t.Error("float and dp must not compare equal")
	}
	if IntPoint(1).Equal(NotFoundPoint()) || NullPoint().Equal(NotFoundPoint()) {
		t.Error("sentinels only equal themselves")
	}
}

func TestDataPoint_UnknownTypeFailsDecode(t *testing.T) {
	var p DataPoint
	if err := json.Unmarshal([]byte(`{"type":"quaternion","value":1}`), &p); err == nil {
		t.Error("unknown type should fail decode")
	}
}

func TestRegisterType(t *testing.T) {
	if err := RegisterType(&DataPointType{Name: "int"}); err == nil {
		t.Error("duplicate registration should fail")
	}
	if err := RegisterType(&DataPointType{Name: "not_found"}); err == nil {
		t.Error("reserved name should fail")
	}
	if err := RegisterType(&DataPointType{Name: ""}); err == nil {
		t.Error("empty name should fail")
	}
}
