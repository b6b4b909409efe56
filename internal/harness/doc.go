// Package harness runs query conformance scenarios.
//
// A scenario builds a query from a declarative definition, applies builder
// calls in order, and checks the rendered FetchXML or the expected error.
//
// # Scenario Format
//
//	name: contact_projection
//	description: "Aliased attributes keep insertion order"
//	definition:
//	  entity: contact
//	  attributes:
//	    - firstname
//	    - lastname: surname
//	steps:
//	  - invoke: AddAttribute
//	    args: { name: firstname, alias: first }
//	  - invoke: SetOrder
//	    args: { attribute: lastname, descending: true }
//	expect_xml: |
//	  <fetch mapping="logical" distinct="false">
//	    <entity name="contact">...</entity>
//	  </fetch>
//	assertions:
//	  - type: attribute_order
//	    names: [firstname, lastname]
//
// Exactly one of expect_xml and expect_error may be given. XML is compared
// structurally, so whitespace and attribute order do not matter.
//
// # Assertion Types
//
//   - element_exists: An element at path has the given attributes (subset match)
//   - element_count: Exactly count elements match path
//   - attribute_order: The projected attribute names appear in exactly this order
//
// # Deterministic Testing
//
// Every call is recorded in a trace with a logical sequence number. Queries
// that render successfully are saved to a fresh in-memory catalog with
// sequential IDs and read back, so the trace, XML and fingerprint of a
// scenario are identical across runs and can be compared with golden files.
package harness
