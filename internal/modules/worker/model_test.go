// README: Tests for worker profile helpers.
package worker

import "testing"

func testWorker() *Worker {
	return &Worker{
		FirstName:      "Dana",
		LastName:       "Reyes",
		Certifications: []string{"HHA", "CPR"},
		Skills:         []string{"Dementia Care"},
		Languages:      []string{"English", "Spanish"},
		Compliance: []JurisdictionCompliance{
			{State: "OH", Registry: RegistryCleared, EVVEnrolled: true, ProviderID: "OH-1234"},
			{State: "PA", Registry: RegistryPending},
		},
	}
}

func TestName(t *testing.T) {
	w := testWorker()
	if got := w.Name(); got != "Dana Reyes" {
		t.Errorf("Name() = %q", got)
	}
	w.LastName = ""
	if got := w.Name(); got != "Dana" {
		t.Errorf("Name() without last name = %q", got)
	}
}

func TestCredentialLookupsFoldCase(t *testing.T) {
	w := testWorker()
	if !w.HasCertification("hha") {
		t.Error("expected hha certification match")
	}
	if w.HasCertification("RN") {
		t.Error("unexpected RN certification match")
	}
	if !w.HasSkill("dementia care") {
		t.Error("expected skill match")
	}
	if !w.SpeaksLanguage("SPANISH") {
		t.Error("expected language match")
	}
	if w.SpeaksLanguage("Mandarin") {
		t.Error("unexpected language match")
	}
}

func TestComplianceFor(t *testing.T) {
	w := testWorker()

	c, ok := w.ComplianceFor("oh")
	if !ok {
		t.Fatal("expected OH compliance record")
	}
	if c.Registry != RegistryCleared || !c.EVVEnrolled || c.ProviderID != "OH-1234" {
		t.Errorf("unexpected OH record: %+v", c)
	}

	c, ok = w.ComplianceFor("PA")
	if !ok {
		t.Fatal("expected PA compliance record")
	}
	if c.Registry != RegistryPending {
		t.Errorf("PA registry = %q", c.Registry)
	}

	if _, ok := w.ComplianceFor("NY"); ok {
		t.Error("unexpected NY compliance record")
	}
}
