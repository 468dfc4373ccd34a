// Package tools provides the travel tool registry and the tools themselves.
//
// # Architecture
//
// Tools are declared as *Spec values: name, description, a JSON schema
// derived from the typed input struct, and a type-erased invoke function.
// A Registry holds the specs; the agent loop resolves tool requests through
// it and feeds results back to the model. Genkit only receives the
// declarations so the model can emit tool requests — execution always goes
// through the registry.
//
// # Tools
//
//  1. Location_Information: TripAdvisor content API (location search +
//     details) for sightseeing, hotel and restaurant proposals.
//  2. Reservation_Information: Rakuten Travel keyword hotel search for
//     accommodation options.
//
// Tool failures surface as *ToolError values so the model can read the
// failure and recover; they never abort the conversation turn.
package tools
