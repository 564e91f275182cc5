// Package can defines the CAN message model and the bulk wire codec
// used for BULK_IN/BULK_OUT frame payloads.
package can
