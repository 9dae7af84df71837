package testutil

import "testing"

// Tenant slugs bound by StandardBindings.
const (
	Acme = "acme"
	Uhu  = "uhu"
)

// StandardBindingsYAML binds the tenants of StandardCorpus.
const StandardBindingsYAML = `clients:
  acme: CLIENT_01_ACME
  uhu: CLIENT_05_UHU
grants:
  uhu: [PRORAIL]
role_remap:
  uhu:
    STRATEGIST: EMPLOYER_BRAND_STRATEGIST
`

// StandardCorpus builds a small corpus exercising every layer feature:
// inheritance, references, tenant overrides, client documents and the
// CONFIG singleton.
func StandardCorpus(tb testing.TB) *Corpus {
	tb.Helper()
	c := NewCorpus(tb)

	c.Add("USE_CASE", "USE_CASE_00_BASE_TEMPLATE", `meta:
  id: USE_CASE_00_BASE_TEMPLATE
tone: neutral
prohibitions:
  - generic filler
format:
  length: medium
  headings: true
`)
	c.Add("USE_CASE", "USE_CASE_04_COPYWRITER", `meta:
  id: USE_CASE_04_COPYWRITER
  owner: content
extends: USE_CASE_00_BASE_TEMPLATE
prohibitions:
  - no clickbait
  - no jargon
format:
  length: short
quality: "$ref:LOGIC_08_QUALITY_GATES#gates"
`)
	c.Add("LOGIC", "LOGIC_08_QUALITY_GATES", `meta:
  id: LOGIC_08_QUALITY_GATES
gates:
  - clarity
  - accuracy
threshold: 0.8
`)
	c.Add("ORG", "ORG_01_BRAND", `meta:
  id: ORG_01_BRAND
voice: shared
`)
	c.AddTenant(Acme, "ORG", "ORG_01_BRAND", `meta:
  id: ORG_01_BRAND
voice: acme
`)
	c.Add("ROLE", "ROLE_03_EMPLOYER_BRAND_STRATEGIST", `meta:
  id: ROLE_03_EMPLOYER_BRAND_STRATEGIST
title: Employer brand strategist
`)
	c.Add("CONFIG", "CONFIG_01_INSTANCE", `meta:
  id: CONFIG_01_INSTANCE
defaults:
  language: en
limits:
  max_tokens: 2000
`)
	c.Add("CLIENT", "CLIENT_00_BASE_TEMPLATE", `meta:
  client_id: BASE_TEMPLATE
brand:
  name: ""
`)
	c.AddTenant(Acme, "CLIENT", "CLIENT_01_ACME", `meta:
  client_id: ACME
brand:
  name: Acme
`)
	c.Add("CLIENT", "CLIENT_05_UHU", `meta:
  client_id: UHU
brand:
  name: UHU
`)
	c.Add("CLIENT", "CLIENT_01_PRORAIL", `meta:
  client_id: PRORAIL
brand:
  name: ProRail
`)
	c.Add("CLIENT", "CLIENT_02_SOMEOTHERCO", `meta:
  client_id: SOMEOTHERCO
brand:
  name: Some Other Co
`)
	c.WriteFile("tenants.yaml", StandardBindingsYAML)
	return c
}
