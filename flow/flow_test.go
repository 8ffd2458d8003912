package flow

import (
	"errors"
	"testing"

	"qbet/intake"
)

func entries(n int) []intake.Entry {
	out := make([]intake.Entry, n)
	for i := range out {
		out[i] = intake.Entry{Seq: i + 1, Ext: ".png"}
	}
	return out
}

func mustDo(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNavigator_FullPass(t *testing.T) {
	n := New()
	mustDo(t, n.PathChosen("/photos"))
	mustDo(t, n.IntakeDone(entries(2), nil))

	for i := 0; i < 2; i++ {
		if n.Screen() != ScreenSelect {
			t.Fatalf("image %d: screen = %v, want select", i, n.Screen())
		}
		cur, ok := n.Current()
		if !ok || cur.Seq != i+1 {
			t.Fatalf("current = %+v, %v", cur, ok)
		}
		mustDo(t, n.SelectionConfirmed())
		mustDo(t, n.OCRDone(nil))
		mustDo(t, n.Reviewed())
		mustDo(t, n.Next())
	}

	if n.Screen() != ScreenDone {
		t.Errorf("screen = %v, want done", n.Screen())
	}
	if _, ok := n.Current(); ok {
		t.Error("Current() should report no image when done")
	}
}

func TestNavigator_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Navigator)
		event func(*Navigator) error
	}{
		{"confirm on path", func(*Navigator) {}, (*Navigator).SelectionConfirmed},
		{"next on path", func(*Navigator) {}, (*Navigator).Next},
		{"retry without error", func(*Navigator) {}, (*Navigator).Retry},
		{"reviewed on select", func(n *Navigator) {
			n.PathChosen("x")
			n.IntakeDone(entries(1), nil)
		}, (*Navigator).Reviewed},
		{"path chosen twice", func(n *Navigator) { n.PathChosen("x") }, func(n *Navigator) error {
			return n.PathChosen("y")
		}},
		{"ocr done on select", func(n *Navigator) {
			n.PathChosen("x")
			n.IntakeDone(entries(1), nil)
		}, func(n *Navigator) error { return n.OCRDone(nil) }},
		{"back on intake", func(n *Navigator) { n.PathChosen("x") }, (*Navigator).Back},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New()
			tt.setup(n)
			before := *n

			err := tt.event(n)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("err = %v, want ErrInvalidTransition", err)
			}
			if n.Screen() != before.Screen() || n.Index() != before.Index() || n.Path() != before.Path() {
				t.Error("state changed after an invalid transition")
			}
		})
	}
}

func TestNavigator_IntakeErrorRetriesToPath(t *testing.T) {
	n := New()
	mustDo(t, n.PathChosen("/missing"))
	boom := errors.New("not found")
	mustDo(t, n.IntakeDone(nil, boom))

	if n.Screen() != ScreenError || !errors.Is(n.Err(), boom) {
		t.Fatalf("screen = %v err = %v", n.Screen(), n.Err())
	}
	mustDo(t, n.Retry())
	if n.Screen() != ScreenPath {
		t.Errorf("screen = %v, want path", n.Screen())
	}
	if n.Err() != nil {
		t.Error("error not cleared by retry")
	}
}

func TestNavigator_EmptyIntakeIsError(t *testing.T) {
	n := New()
	mustDo(t, n.PathChosen("/dir"))
	mustDo(t, n.IntakeDone(nil, nil))
	if n.Screen() != ScreenError {
		t.Errorf("screen = %v, want error", n.Screen())
	}
}

func TestNavigator_OCRErrorRetriesToSelect(t *testing.T) {
	n := New()
	mustDo(t, n.PathChosen("/dir"))
	mustDo(t, n.IntakeDone(entries(3), nil))
	mustDo(t, n.Next())
	mustDo(t, n.SelectionConfirmed())
	mustDo(t, n.OCRDone(errors.New("timed out")))

	mustDo(t, n.Retry())
	if n.Screen() != ScreenSelect || n.Index() != 1 {
		t.Errorf("screen = %v index = %d, want select on image 2", n.Screen(), n.Index())
	}
}

func TestNavigator_Back(t *testing.T) {
	n := New()
	mustDo(t, n.PathChosen("/dir"))
	mustDo(t, n.IntakeDone(entries(1), nil))
	mustDo(t, n.SelectionConfirmed())

	mustDo(t, n.Back())
	if n.Screen() != ScreenSelect {
		t.Fatalf("screen = %v, want select", n.Screen())
	}
	mustDo(t, n.Back())
	if n.Screen() != ScreenPath {
		t.Fatalf("screen = %v, want path", n.Screen())
	}
	mustDo(t, n.PathChosen("/other"))
	if n.Path() != "/other" {
		t.Errorf("path = %q", n.Path())
	}
}

func TestNavigator_FailReturnsToSameScreen(t *testing.T) {
	n := New()
	mustDo(t, n.PathChosen("/dir"))
	mustDo(t, n.IntakeDone(entries(2), nil))
	mustDo(t, n.Fail(errors.New("cannot decode image")))

	if n.RetryScreen() != ScreenSelect {
		t.Errorf("retry screen = %v, want select", n.RetryScreen())
	}
	mustDo(t, n.Retry())
	mustDo(t, n.Next())
	if cur, _ := n.Current(); cur.Seq != 2 {
		t.Errorf("current seq = %d, want 2", cur.Seq)
	}
}

func TestScreen_String(t *testing.T) {
	if ScreenRecognize.String() != "recognize" {
		t.Errorf("got %q", ScreenRecognize.String())
	}
	if Screen(42).String() != "screen(42)" {
		t.Errorf("got %q", Screen(42).String())
	}
}
