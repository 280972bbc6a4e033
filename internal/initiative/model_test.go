package initiative

import "testing"

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw   string
		ok    bool
		reply bool
	}{
		{"In corso", true, false},
		{"Approvata", true, true},
		{"Respinta", true, true},
		{"Scaduta", true, true},
		{"Archiviata", true, false},
		{"approvata", false, false},
		{"", false, false},
		{"Aperta", false, false},
	}

	for _, tc := range tests {
		status, ok := ParseStatus(tc.raw)
		if ok != tc.ok {
			t.Errorf("ParseStatus(%q): esperado ok=%v, veio %v", tc.raw, tc.ok, ok)
		}
		if ok && status.AssignableByReply() != tc.reply {
			t.Errorf("AssignableByReply(%q): esperado %v", tc.raw, tc.reply)
		}
	}
}

func TestMergeRecipientsDeduplicates(t *testing.T) {
	author := []Recipient{{UserID: 1, Name: "Autor", Email: "autor@x"}}
	signers := []Recipient{
		{UserID: 2, Name: "Assinante", Email: "a@x"},
		{UserID: 1, Name: "Autor", Email: "autor@x"},
	}
	followers := []Recipient{
		{UserID: 3, Name: "Seguidor", Email: "s@x"},
		{UserID: 2, Name: "Assinante", Email: "a@x"},
	}

	merged := mergeRecipients(author, signers, followers)

	if len(merged) != 3 {
		t.Fatalf("esperado 3 destinatários, veio %d", len(merged))
	}
	want := []int64{1, 2, 3}
	for i, id := range want {
		if merged[i].UserID != id {
			t.Errorf("posição %d: esperado usuário %d, veio %d", i, id, merged[i].UserID)
		}
	}
}

func TestMergeRecipientsEmptyGroups(t *testing.T) {
	if merged := mergeRecipients(nil, nil, nil); len(merged) != 0 {
		t.Fatalf("esperado vazio, veio %d", len(merged))
	}
}
