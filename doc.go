// Package fetchxml builds FetchXML query expressions.
//
// A Query accumulates the shape of a retrieval query (entity, projected
// attributes, distinctness, row limit and a single sort key) through fluent
// setters and renders it to FetchXML text:
//
//	q := fetchxml.New().
//	    SetDistinct(true).
//	    SetCount(3).
//	    SetEntity("contact").
//	    AddAttributes(
//	        fetchxml.Name("firstname"),
//	        fetchxml.As("lastname", "surname"),
//	        fetchxml.NewAliasedAttribute("emailaddress1", "email"),
//	    ).
//	    SetOrder("lastname")
//
//	xml, err := q.Render()
//
// produces
//
//	<fetch mapping="logical" distinct="true" count="3">
//	  <entity name="contact">
//	    <attribute name="firstname"/>
//	    <attribute name="lastname" alias="surname"/>
//	    <attribute name="emailaddress1" alias="email"/>
//	    <order attribute="lastname" descending="false"/>
//	  </entity>
//	</fetch>
//
// # Argument errors
//
// Setters never break a chain. A rejected argument leaves the query untouched
// and is recorded; Err and Render report every recorded failure. All of them
// match ErrInvalidArgument with errors.Is.
//
// # Ownership
//
// Queries and attributes are single-owner values with no internal locking.
// Rendering only reads state, so distinct queries may be rendered from
// different goroutines; a single query must not be mutated concurrently.
package fetchxml
