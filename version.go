package zarrs

// Version is the library version recorded in array metadata under the
// _zarrs attribute.
const Version = "0.12.0"
