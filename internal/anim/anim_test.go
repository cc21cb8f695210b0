/*
 * Copyright (c) 2025 by the gobu authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package anim

import (
	"math"
	"reflect"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestFadeInProgressAndFinish(t *testing.T) {
	tr := Spec{Kind: FadeIn, Duration: 2}.New()
	var a Appearance
	a.Alpha = 0.7
	tr.Start(&a)
	if a.Alpha != 0 {
		t.Fatalf("fade in should start transparent, got %v", a.Alpha)
	}
	if st := tr.Update(0.5, &a); st != Continue || !near(a.Alpha, 0.25) {
		t.Fatalf("after 0.5s: status %v alpha %v", st, a.Alpha)
	}
	if st := tr.Update(1.5, &a); st != Continue || !near(a.Alpha, 1) {
		t.Fatalf("at exactly the duration the fade continues: status %v alpha %v", st, a.Alpha)
	}
	if st := tr.Update(0.01, &a); st != Finished || a.Alpha != 1 {
		t.Fatalf("past the duration: status %v alpha %v", st, a.Alpha)
	}
}

func TestFadeOutProgressAndFinish(t *testing.T) {
	tr := Spec{Kind: FadeOut, Duration: 1}.New()
	a := Appearance{}
	tr.Start(&a)
	if a.Alpha != 1 {
		t.Fatalf("fade out should start opaque, got %v", a.Alpha)
	}
	if st := tr.Update(0.25, &a); st != Continue || !near(a.Alpha, 0.75) {
		t.Fatalf("after 0.25s: status %v alpha %v", st, a.Alpha)
	}
	if st := tr.Update(1, &a); st != Finished || a.Alpha != 0 {
		t.Fatalf("past the duration: status %v alpha %v", st, a.Alpha)
	}
}

func TestFinishSnaps(t *testing.T) {
	a := Appearance{Alpha: 0.3}
	Spec{Kind: FadeIn, Duration: 5}.New().Finish(&a)
	if a.Alpha != 1 {
		t.Fatalf("fade in finish should be opaque, got %v", a.Alpha)
	}
	Spec{Kind: FadeOut, Duration: 5}.New().Finish(&a)
	if a.Alpha != 0 {
		t.Fatalf("fade out finish should be transparent, got %v", a.Alpha)
	}
}

func TestZeroDurationFinishesAtOnce(t *testing.T) {
	a := Appearance{}
	if st := (Spec{Kind: FadeIn}).New().Update(0, &a); st != Finished || a.Alpha != 1 {
		t.Fatalf("zero duration: status %v alpha %v", st, a.Alpha)
	}
}

func TestRegistryCreatesFreshInstances(t *testing.T) {
	r := NewRegistry()
	r.Register("fade", Spec{Kind: FadeIn, Duration: 1})
	r.Register("out", Spec{Kind: FadeOut, Duration: 1})

	t1, ok := r.Create("fade")
	if !ok {
		t.Fatalf("expected fade to exist")
	}
	var a Appearance
	t1.Update(0.6, &a)
	t2, _ := r.Create("fade")
	var b Appearance
	t2.Update(0.1, &b)
	if !near(b.Alpha, 0.1) {
		t.Fatalf("instances share progress: %v", b.Alpha)
	}
	if _, ok := r.Create("missing"); ok {
		t.Fatalf("unknown transition should not be created")
	}
	if got := r.Names(); !reflect.DeepEqual(got, []string{"fade", "out"}) {
		t.Fatalf("unexpected names %v", got)
	}
}

func TestKindText(t *testing.T) {
	var k Kind
	if err := k.UnmarshalText([]byte("fadeOut")); err != nil || k != FadeOut {
		t.Fatalf("unmarshal: %v %v", k, err)
	}
	if err := k.UnmarshalText([]byte("Slide")); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if b, _ := FadeIn.MarshalText(); string(b) != "FadeIn" {
		t.Fatalf("marshal: %s", b)
	}
}
