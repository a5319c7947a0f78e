package ledger

import "testing"

func TestExtractOrderNumber(t *testing.T) {
	t.Parallel()

	cases := []struct {
		memo string
		want int64
		none bool
	}{
		{memo: "transfer for DH42 order", want: 42},
		{memo: "dh777", want: 777},
		{memo: "ORDER1234 lunch", want: 1234},
		{memo: "order9 thanks", want: 9},
		{memo: "DH12 and ORDER34", want: 12},
		{memo: "no reference here", none: true},
		{memo: "DH without digits", none: true},
		{memo: "", none: true},
	}

	for _, tc := range cases {
		got := ExtractOrderNumber(tc.memo)
		if tc.none {
			if got != nil {
				t.Errorf("ExtractOrderNumber(%q) = %d, want nil", tc.memo, *got)
			}
			continue
		}
		if got == nil || *got != tc.want {
			t.Errorf("ExtractOrderNumber(%q) = %v, want %d", tc.memo, got, tc.want)
		}
	}
}
