// Package expand turns merged test declarations into flat parameter sets.
//
// Expansion runs these steps on a copy of the declaration:
//
//  1. a declaration without inputs gets a single empty parameter set;
//  2. if_role values are resolved into one tuple per device interface;
//  3. list and range values are expanded into permutations when requested;
//  4. an implicit encryption argument is appended when requested;
//  5. every tuple passes the enabled compatibility filters, in order;
//  6. surviving tuples are zipped against args_mapping;
//  7. skip, ignore and xfail blocks annotate the result;
//  8. default values are merged under each parameter set.
//
// Filters live in a FilterRegistry so individual checks can be disabled.
// Every drop, modification and flag is reported to the generation trace.
package expand
