// Package generator holds the suite-specific test generators.
//
// A Registry maps test names to generators. Tests without a specialized
// generator fall back to the plain expander. The suites are:
//
//   - WM: channel and HT mode iteration tables built from the gateway's
//     capabilities, gateway/leaf band checks and WPA3 gating;
//   - NM: resolution of FutGen| interface tokens;
//   - SM: insertion of the stats radio type;
//   - ONBRD: interface tokens for onboarding tests.
//
// Suites receive their dependencies through Config at construction time.
package generator
