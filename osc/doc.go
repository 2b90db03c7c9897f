// Copyright 2013 - 2015 Sebastian Ruml <sebastian.ruml@gmail.com>

/*
Package osc encodes and decodes Open Sound Control messages and carries them
over UDP.

The implementation covers a subset of the Open Sound Control 1.0
Specification (http://opensoundcontrol.org/spec-1_0): single messages with
the argument types

	'i' (int32)
	'f' (float32)
	's' (string)
	'h' (int64)
	'd' (float64)

Bundles, time tags and address pattern matching are not supported.

A message is an address string, a type tag string and the arguments, in that
order and without length prefixes. Strings are terminated by a zero byte and
padded with zero bytes to a multiple of 4; a string whose length is already a
multiple of 4 is followed by a full block of 4 zero bytes. Numbers are
big-endian.

Decoding never panics on malformed input. Errors are *DecodeError values that
wrap one of ErrMissingTerminator, ErrTruncatedArgument or
ErrMalformedTypeTag. A type tag the decoder does not know yields an
Unsupported argument without consuming any payload bytes, which misplaces
every argument after it; use Decoder{Strict: true} to reject such messages.

Usage

Sending a message built from command line style arguments:

	data, err := osc.Encode("/ping", []osc.Arg{{Tag: osc.TypeInt32, Value: "42"}})
	if err != nil {
		return err
	}
	client := osc.NewClient("localhost", 9001)
	defer client.Close()
	return client.Send(ctx, data)

Receiving on a dual-stack socket:

	server := &osc.Server{
		Addr: "[::]:9001",
		Handler: osc.HandlerFunc(func(msg *osc.Message, from net.Addr) {
			fmt.Println(msg)
		}),
	}
	err := server.ListenAndServe(ctx)
*/
package osc
